package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Switchboard/internal/adapters/signal"
	"github.com/dkeye/Switchboard/internal/config"
	"github.com/dkeye/Switchboard/internal/core"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	sessionName     = "SwitchboardSessions"
	tokenQueryParam = "accessToken"
)

// AccessTokenMiddleware negotiates the access token before the websocket
// upgrade: the query parameter wins and is remembered in the cookie session,
// otherwise the remembered token is reused.
func AccessTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token := c.Query(tokenQueryParam)
		if token != "" {
			sess.Set(core.AttrAccessToken, token)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save access token")
			}
		} else if v, ok := sess.Get(core.AttrAccessToken).(string); ok {
			token = v
		}
		c.Set(core.AttrAccessToken, token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctrl *signal.SignalWSController, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	secret := cfg.Secret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Str("module", "adapters.http").Msg("no secret configured, cookie sessions will not survive a restart")
	}
	store := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions(sessionName, store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "handlers": ctrl.Dispatcher.Registry().Tags()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	api.Use(AccessTokenMiddleware())

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
