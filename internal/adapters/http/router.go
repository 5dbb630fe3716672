package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/arcas-io/load-server/internal/app"
	"github.com/arcas-io/load-server/internal/config"
)

// SetupRouter builds the gin engine with the session RPC surface plus the
// health and metrics endpoints.
func SetupRouter(cfg *config.Config, server *app.Server) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &Handlers{server: server}

	api := r.Group("/api/v1")
	api.POST("/sessions", h.CreateSession)

	session := api.Group("/sessions/:session_id")
	session.POST("/start", h.StartSession)
	session.POST("/stop", h.StopSession)
	session.GET("/stats", h.GetStats)
	session.POST("/peer_connections", h.CreatePeerConnection)

	pc := session.Group("/peer_connections/:peer_connection_id")
	pc.POST("/offer", h.CreateOffer)
	pc.POST("/answer", h.CreateAnswer)
	pc.POST("/local_description", h.SetLocalDescription)
	pc.POST("/remote_description", h.SetRemoteDescription)
	pc.POST("/tracks", h.AddTrack)
	pc.POST("/transceivers", h.AddTransceiver)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
