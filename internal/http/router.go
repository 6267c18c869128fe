// README: HTTP router registration; delegates to module services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideflow/internal/http/handlers"
	"rideflow/internal/http/middleware"
	"rideflow/internal/modules/location"
	"rideflow/internal/modules/pricing"
	"rideflow/internal/modules/ride"
	"rideflow/internal/notify"
)

type RouterDeps struct {
	Rides     *ride.Service
	Locations *location.Service
	Pricing   *pricing.Service
	Hub       *notify.Hub
	JWTSecret string
	Log       *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.JWTSecret))

	rideHandler := handlers.NewRideHandler(deps.Rides)
	api.POST("/rides", rideHandler.Create)
	api.GET("/rides/:id", rideHandler.Get)
	api.POST("/rides/:id/accept", rideHandler.Accept)
	api.POST("/rides/:id/start", rideHandler.Start)
	api.POST("/rides/:id/complete", rideHandler.Complete)
	api.POST("/rides/:id/cancel", rideHandler.Cancel)

	locationHandler := handlers.NewLocationHandler(deps.Locations)
	api.PUT("/drivers/:id/location", locationHandler.Update)
	api.DELETE("/drivers/:id/location", locationHandler.Offline)

	pricingHandler := handlers.NewPricingHandler(deps.Pricing)
	api.POST("/pricing/estimate", pricingHandler.Estimate)

	wsHandler := handlers.NewWSHandler(deps.Hub, deps.Log)
	r.GET("/ws", middleware.Auth(deps.JWTSecret), wsHandler.Connect)

	return r
}
