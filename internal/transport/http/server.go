package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/termchat-server/internal/auth"
	"github.com/vovakirdan/termchat-server/internal/config"
	"github.com/vovakirdan/termchat-server/internal/core"
)

// NewServer builds the HTTP server: health, identity REST API and read-only
// chat API on gin, with the WebSocket endpoint mounted beside it.
func NewServer(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := router.Group("/api")
	{
		apiHandlers := NewAPIHandlers(authService, logger)
		api.POST("/auth/register", apiHandlers.Register)
		api.POST("/auth/login", apiHandlers.Login)

		roomHandlers := NewRoomHandlers(hub, logger)
		protected := api.Group("")
		protected.Use(AuthMiddleware(authService, logger))
		protected.GET("/stats", roomHandlers.Stats)
		protected.GET("/rooms/:room/history", roomHandlers.History)
	}

	// gin's writer refuses to hijack after WriteHeader, so /ws bypasses it.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, authService, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
