package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cristianadrielbraun/posterqr/internal/editor"
	"github.com/cristianadrielbraun/posterqr/internal/metrics"
	"github.com/cristianadrielbraun/posterqr/internal/qrrender"
	"github.com/cristianadrielbraun/posterqr/web/pages"
)

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	sessions       *editor.Registry
	renderer       *qrrender.Renderer
	metrics        *metrics.Metrics
	maxUploadBytes int64
	log            *zap.Logger
}

// Options configures a Handler.
type Options struct {
	Sessions       *editor.Registry
	Renderer       *qrrender.Renderer
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// New returns a new Handler instance.
func New(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	return &Handler{
		sessions:       opts.Sessions,
		renderer:       opts.Renderer,
		metrics:        m,
		maxUploadBytes: opts.MaxUploadBytes,
		log:            log,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.HomePage)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/qr", h.QRCodeHandler)
		api.POST("/htmx/toast", h.GenericToast)

		s := api.Group("/sessions")
		s.POST("", h.CreateSession)
		s.GET("/:id", h.GetSession)
		s.DELETE("/:id", h.DeleteSession)
		s.POST("/:id/image", h.UploadImage)
		s.GET("/:id/image", h.ImageDataURL)
		s.PATCH("/:id/settings", h.UpdateSettings)
		s.POST("/:id/reset", h.ResetPlacement)
		s.PUT("/:id/viewport", h.SetViewport)
		s.POST("/:id/pointer", h.Pointer)
		s.GET("/:id/preview.png", h.Preview)
		s.POST("/:id/export", h.Export)
		s.GET("/:id/export-button", h.ExportButton)
	}
}

// HomePage renders the editor.
func (h *Handler) HomePage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pages.HomePage().Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("render home page", zap.Error(err))
	}
}
