package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/adapters/signal"
	"github.com/dkeye/anonchat/internal/app/orch"
	"github.com/dkeye/anonchat/internal/config"
)

const clientTokenKey = "ct"

// ClientTokenMiddleware gives every browser a stable anonymous token kept in
// the session cookie. It identifies a client in logs only.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			s.Set(clientTokenKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type Deps struct {
	Orch    *orch.Orchestrator
	Signal  *signal.SignalWSController
	Metrics prometheus.Gatherer
	Started time.Time
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("AnonChatSession", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{orch: d.Orch, started: d.Started}
	admin := AdminAuth(cfg.AdminPassword)
	strict := RateLimit(cfg.AdminRatePerMinute)

	api := r.Group("/api", RateLimit(cfg.HTTPRatePerMinute))

	api.GET("/health", h.health)
	api.GET("/ws", func(c *gin.Context) {
		d.Signal.HandleSignal(ctx, c)
	})

	api.GET("/rooms", admin, h.listRooms)
	api.GET("/rooms/:roomId", h.roomInfo)
	api.DELETE("/rooms/:roomId", admin, h.deleteRoom)

	adm := api.Group("/admin", strict, admin)
	adm.GET("/stats", h.stats)
	adm.GET("/rooms", h.listRooms)
	adm.POST("/broadcast", h.broadcast)
	adm.DELETE("/rooms/:roomId", h.deleteRoom)

	msgs := api.Group("/messages", admin)
	msgs.GET("/:roomId", h.messages)
	msgs.DELETE("/:roomId", h.clearMessages)
	msgs.DELETE("/:roomId/clear", h.clearMessages)
	msgs.DELETE("/:roomId/:messageId", h.deleteMessage)

	return r
}
