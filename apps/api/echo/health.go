package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessTimeout = 3 * time.Second

type CheckStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func registerHealthAPI(g *echo.Group, checks []HealthCheck) {
	live := func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "time": time.Now().UTC()})
	}
	g.GET("/health", live)
	g.GET("/health/live", live)
	g.GET("/health/ready", func(ctx echo.Context) error {
		c, cancel := context.WithTimeout(ctx.Request().Context(), readinessTimeout)
		defer cancel()

		code, status := http.StatusOK, "ok"
		results := make([]CheckStatus, 0, len(checks))
		for _, check := range checks {
			res := CheckStatus{Name: check.Name, Status: "ok"}
			if err := check.Ping(c); err != nil {
				res.Status, res.Error = "down", err.Error()
				code, status = http.StatusServiceUnavailable, "degraded"
			}
			results = append(results, res)
		}
		return ctx.JSON(code, echo.Map{"status": status, "checks": results})
	})
}
