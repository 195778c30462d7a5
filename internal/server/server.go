package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/kargohub/cargo-backend/internal/handler"
	"github.com/kargohub/cargo-backend/internal/metrics"
	"github.com/kargohub/cargo-backend/internal/repository"
	"github.com/kargohub/cargo-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	e *echo.Echo
}

func New(db *gorm.DB, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			if strings.HasSuffix(u.Hostname(), "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	m := metrics.NewMetrics(nil)
	shipmentRepo := repository.NewShipmentRepository(db)
	shipmentSvc := service.NewShipmentService(shipmentRepo, service.NewLogNotifier(log), m)
	shipmentHandler := handler.NewShipmentHandler(shipmentSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.GET("", shipmentHandler.List)
	api.GET("/shipments", shipmentHandler.List)
	api.GET("/shipments/stats", shipmentHandler.Stats)
	api.GET("/track/:code", shipmentHandler.Track)
	api.POST("", shipmentHandler.Create)
	api.POST("/shipments", shipmentHandler.Create)
	api.PUT("/shipments/:code", shipmentHandler.UpdateStatus)
	api.DELETE("/shipments/:code", shipmentHandler.Delete)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, handler.NewErrorResponse("endpoint not found"))
	})

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Echo() *echo.Echo {
	return s.e
}
