package handlers

import (
	"context"
	"net/http"
	"time"

	"attendance/faces"
	"attendance/models"
	"attendance/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Response struct {
	Error string `json:"error"`
}

var (
	// Predefined errors
	NopeResponse     = Response{"nope"}
	DBError1Response = Response{"DB Error 1"}
)

type PresenceLister interface {
	List(ctx context.Context, seanceID string) ([]models.Presence, error)
}

type RouterConfig struct {
	Stream   *Stream
	Presence PresenceLister
	Model    *faces.Model
	Log      *zap.Logger
	Debug    bool
}

// NewRouter mounts the camera websocket on "/" and "/ws" plus a couple of read-only JSON endpoints
func NewRouter(cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if cfg.Debug {
		router.Use(utils.ErrorLogMiddleware(cfg.Log))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET"},
		AllowHeaders:  []string{"Origin"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        30 * 24 * time.Hour,
	}))

	router.GET("/", cfg.Stream.Handle)
	router.GET("/ws", cfg.Stream.Handle)

	api := router.Group("")
	api.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler())
	if !cfg.Debug {
		api.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	api.GET("/health", func(c *gin.Context) {
		Health(c, cfg.Stream, cfg.Model)
	})
	api.GET("/seance/:id/presence", func(c *gin.Context) {
		SeancePresence(c, cfg.Presence)
	})
	return router
}

func Health(c *gin.Context, stream *Stream, model *faces.Model) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"clients":    len(stream.ConnectedClients()),
		"identities": model.Identities(),
	})
}

func SeancePresence(c *gin.Context, lister PresenceLister) {
	seanceID := c.Param("id")
	if seanceID == "" {
		c.JSON(http.StatusBadRequest, NopeResponse)
		return
	}
	list, err := lister.List(c.Request.Context(), seanceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, list)
}
