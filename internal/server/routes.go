package server

import (
	"net/http"
	"time"

	"softwater2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const requestTimeout = 60 * time.Second

type holidayModeBody struct {
	Enable bool `json:"enable"`
}

type actionResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/snapshot", s.SnapshotHandler)
	e.GET("/flow", s.FlowHandler)
	e.POST("/regenerate", s.RegenerateHandler)
	e.POST("/holiday_mode", s.HolidayModeHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// SnapshotHandler serves the latest normalized snapshot. 404 until the first
// cycle completes.
func (s *Server) SnapshotHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetLatestSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, actionResponse{Error: err.Error()})
	}
	response, ok := res.(domain.GetLatestSnapshotResponse)
	if !ok || response.Snapshot == nil {
		return c.JSON(http.StatusNotFound, actionResponse{Error: "no snapshot yet"})
	}
	return c.JSON(http.StatusOK, response.Snapshot)
}

func (s *Server) FlowHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetLatestFlowRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, actionResponse{Error: err.Error()})
	}
	response, ok := res.(domain.GetLatestFlowResponse)
	if !ok || response.Flow == nil {
		return c.JSON(http.StatusNotFound, actionResponse{Error: "no flow reading yet"})
	}
	return c.JSON(http.StatusOK, response.Flow)
}

func (s *Server) RegenerateHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.TriggerRegenerationRequest{}, requestTimeout).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, actionResponse{Error: err.Error()})
	}
	if response, ok := res.(domain.TriggerRegenerationResponse); ok {
		if response.HasResponseError() {
			return c.JSON(http.StatusBadGateway, actionResponse{Error: response.GetResponseError().Error()})
		}
		return c.JSON(http.StatusOK, actionResponse{Ok: true})
	}
	return c.JSON(http.StatusInternalServerError, actionResponse{Error: "unexpected response"})
}

func (s *Server) HolidayModeHandler(c echo.Context) error {
	var body holidayModeBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, actionResponse{Error: "invalid body"})
	}
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.SetHolidayModeRequest{Enable: body.Enable}, requestTimeout).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, actionResponse{Error: err.Error()})
	}
	if response, ok := res.(domain.SetHolidayModeResponse); ok {
		if response.HasResponseError() {
			return c.JSON(http.StatusBadGateway, actionResponse{Error: response.GetResponseError().Error()})
		}
		return c.JSON(http.StatusOK, actionResponse{Ok: true})
	}
	return c.JSON(http.StatusInternalServerError, actionResponse{Error: "unexpected response"})
}
