package domain

import "time"

// Snapshot is the normalized result of one slow-poll aggregation cycle.
// It is built once per cycle and replaced wholesale, never merged with a
// previous one. Pointer fields are nil when the vendor payload was absent
// or unparseable; consumers treat nil as "unavailable" for that field only.
type Snapshot struct {
	LastRegeneration string
	NrRegenerations  int
	LastMaintenance  string
	// TotalVolume is the lifetime treated-water counter in liters, with
	// any unit suffix already stripped.
	TotalVolume string
	Warnings    []Warning
	Serial      string
	Software    string
	Status      Status
	Settings    map[string]any
	HolidayMode bool
	Features    map[string]any
	// FlowRate is the instantaneous flow in L/min, 0 when the payload
	// carried no flow block.
	FlowRate      *float64
	WaterHardness *float64
	SaltLevel     *float64
	RegenTime     string
}

// FlowSnapshot is the result of one fast-poll cycle. Its lifecycle is
// independent from Snapshot: the two may have been produced at different
// wall-clock times.
type FlowSnapshot struct {
	FlowRate *float64
}

type Warning struct {
	Description string
	Code        string
}

type Status struct {
	Title         string
	Code          string
	Percentage    *float64
	Extra         string
	DaysRemaining *int
}

// MaintenanceState is the evaluated service-due condition. Known is false
// when the last maintenance date was missing or unparseable; the condition
// then fails closed (not due).
type MaintenanceState struct {
	Known       bool
	Due         bool
	NextService time.Time
	DaysUntil   int
}
