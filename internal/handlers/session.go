package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cristianadrielbraun/posterqr/internal/editor"
	"github.com/cristianadrielbraun/posterqr/internal/export"
	"github.com/cristianadrielbraun/posterqr/internal/gesture"
	"github.com/cristianadrielbraun/posterqr/internal/ingest"
	"github.com/cristianadrielbraun/posterqr/internal/placement"
	"github.com/cristianadrielbraun/posterqr/internal/surface"
	"github.com/cristianadrielbraun/posterqr/web/components"
	toast "github.com/cristianadrielbraun/posterqr/web/components/ui/toast"
)

const exportFailedMessage = "Failed to generate image. Please try again."

// session resolves the :id parameter. It writes a 404 and returns false when
// the session does not exist.
func (h *Handler) session(c *gin.Context) (*editor.Session, bool) {
	s, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}

// CreateSession starts a session with the default placement.
func (h *Handler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, s.View())
}

func (h *Handler) GetSession(c *gin.Context) {
	if s, ok := h.session(c); ok {
		c.JSON(http.StatusOK, s.View())
	}
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage replaces the base image. The image is read from the "file"
// field of a multipart form, or from the raw body otherwise.
func (h *Handler) UploadImage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	data, declared, err := readUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.metrics.UploadsTotal.WithLabelValues("too_large").Inc()
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image is too large"})
			return
		}
		h.metrics.UploadsTotal.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := s.SetImage(data, declared)
	switch {
	case errors.Is(err, ingest.ErrAssetTooLarge):
		h.metrics.UploadsTotal.WithLabelValues("too_large").Inc()
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ingest.ErrInvalidAssetType):
		h.metrics.UploadsTotal.WithLabelValues("invalid_type").Inc()
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.metrics.UploadsTotal.WithLabelValues("decode_error").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	h.metrics.UploadsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, view)
}

// ImageDataURL returns the uploaded base image as a data URL.
func (h *Handler) ImageDataURL(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	u, err := s.DataURL()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dataUrl": u})
}

func readUpload(c *gin.Context) ([]byte, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("read upload: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", fmt.Errorf("read upload: %w", err)
		}
		return data, fh.Header.Get("Content-Type"), nil
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty upload")
	}
	return data, c.ContentType(), nil
}

type settingsRequest struct {
	Content    *string  `json:"content"`
	Size       *float64 `json:"size"`
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Foreground *string  `json:"foreground"`
	Background *string  `json:"background"`
}

func (r settingsRequest) patch() (placement.Patch, error) {
	p := placement.Patch{Content: r.Content, Size: r.Size, X: r.X, Y: r.Y}
	if r.Content != nil && len(*r.Content) > maxContentLength {
		return p, errors.New("content is too long")
	}
	if r.Foreground != nil {
		c, err := placement.ParseColor(*r.Foreground)
		if err != nil {
			return p, fmt.Errorf("foreground: %w", err)
		}
		p.Foreground = &c
	}
	if r.Background != nil {
		c, err := placement.ParseColor(*r.Background)
		if err != nil {
			return p, fmt.Errorf("background: %w", err)
		}
		p.Background = &c
	}
	return p, nil
}

// UpdateSettings applies a partial update. Numeric values are clamped to
// their ranges.
func (h *Handler) UpdateSettings(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := req.patch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.Update(p))
}

// ResetPlacement recenters the overlay at its default size.
func (h *Handler) ResetPlacement(c *gin.Context) {
	if s, ok := h.session(c); ok {
		c.JSON(http.StatusOK, s.Reset())
	}
}

// SetViewport records the space the client can give the surface.
func (h *Handler) SetViewport(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var vp surface.Viewport
	if err := c.ShouldBindJSON(&vp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if vp.MaxWidth < 0 || vp.MaxHeight < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "viewport dimensions must not be negative"})
		return
	}
	c.JSON(http.StatusOK, s.SetViewport(vp))
}

type pointerRequest struct {
	Type    string          `json:"type"`
	Target  string          `json:"target"`
	X       *float64        `json:"x"`
	Y       *float64        `json:"y"`
	Touches []gesture.Point `json:"touches"`
}

func (r pointerRequest) event() (gesture.Event, bool, error) {
	ev := gesture.Event{Kind: gesture.Kind(r.Type), Target: gesture.Target(r.Target)}
	switch ev.Kind {
	case gesture.Down, gesture.Move, gesture.Up, gesture.Cancel, gesture.Blur:
	default:
		return ev, false, fmt.Errorf("unknown pointer event %q", r.Type)
	}
	switch ev.Target {
	case "", gesture.TargetSurface, gesture.TargetOverlay, gesture.TargetHandle:
	default:
		return ev, false, fmt.Errorf("unknown pointer target %q", r.Target)
	}

	switch {
	case r.X != nil && r.Y != nil:
		ev.Point = gesture.Point{X: *r.X, Y: *r.Y}
	case r.Touches != nil:
		p, ok := gesture.FromTouches(r.Touches)
		if !ok && (ev.Kind == gesture.Down || ev.Kind == gesture.Move) {
			// A touch list without touches has no position to act on.
			return ev, false, nil
		}
		ev.Point = p
	case ev.Kind == gesture.Down || ev.Kind == gesture.Move:
		return ev, false, errors.New("pointer position is required")
	}
	return ev, true, nil
}

type pointerResponse struct {
	editor.View
	Consumed  bool `json:"consumed"`
	Committed bool `json:"committed"`
}

// Pointer feeds one mouse or touch event to the gesture controller.
// consumed in the reply tells the client to suppress the default action,
// e.g. page scrolling during a touch drag.
func (h *Handler) Pointer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, ok, err := req.event()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, pointerResponse{View: s.View()})
		return
	}

	h.metrics.PointerEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	view, res := s.Pointer(ev)
	c.JSON(http.StatusOK, pointerResponse{View: view, Consumed: res.Consumed, Committed: res.Committed})
}

// Preview renders the surface at display size. hover=1 draws the outline
// and resize handle.
func (h *Handler) Preview(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	data, err := s.Preview(c.Query("hover") == "1")
	switch {
	case errors.Is(err, editor.ErrNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("render preview", zap.String("session", s.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render preview"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// Export renders the high density composite and returns it as a download.
// htmx requests get a toast on failure instead of a JSON error.
func (h *Handler) Export(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var (
		filename string
		data     []byte
	)
	err := s.Export(c.Request.Context(), export.DeliveryFunc(func(name string, b []byte) {
		filename, data = name, b
	}))
	if err != nil {
		status, msg := http.StatusInternalServerError, exportFailedMessage
		switch {
		case errors.Is(err, editor.ErrNotReady):
			status, msg = http.StatusConflict, err.Error()
		case errors.Is(err, export.ErrExportInFlight):
			status, msg = http.StatusConflict, "Export already in progress."
		default:
			h.log.Error("export failed", zap.String("session", s.ID), zap.Error(err))
		}
		if isHTMX(c) {
			c.Header("HX-Retarget", "#toasts")
			c.Header("HX-Reswap", "beforeend")
			h.renderToast(c, http.StatusOK, msg, "", toast.VariantError, true)
			return
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// ExportButton renders the export trigger for the session's current state.
func (h *Handler) ExportButton(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := components.ExportButton(components.ExportButtonData{
		SessionID: s.ID,
		State:     string(s.ExportState()),
	}).Render(c.Request.Context(), c.Writer)
	if err != nil {
		h.log.Error("render export button", zap.Error(err))
	}
}
