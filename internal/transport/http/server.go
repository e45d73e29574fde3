package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/framechat/internal/config"
	"github.com/vovakirdan/framechat/internal/core"
	"github.com/vovakirdan/framechat/internal/frame"
)

// NewServer builds the admin HTTP server: health, roster endpoints and the
// WebSocket gateway that carries the same framed stream as the TCP listener.
func NewServer(hub core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(hub, frame.NewCodec(cfg.MaxFrameBytes), logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler mounts the WebSocket gateway on a plain mux and hands every
// other path to the gin router. gin's response writer refuses to hijack a
// connection once the upgrade headers are out, so /ws must bypass it.
func NewHandler(hub core.Hub, codec frame.Codec, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, codec, logger))
	mux.Handle("/", NewRouter(hub, logger))
	return mux
}

// NewRouter wires the gin routes.
func NewRouter(hub core.Hub, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	roster := NewRosterHandlers(hub, logger)
	api := router.Group("/api")
	{
		api.GET("/users", roster.ListUsers)
		api.GET("/managers", roster.ListManagers)
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
