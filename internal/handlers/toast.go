package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	toast "github.com/cristianadrielbraun/posterqr/web/components/ui/toast"
)

// GenericToast returns a Toast component rendered as HTML for HTMX swaps.
func (h *Handler) GenericToast(c *gin.Context) {
	title := c.PostForm("title")
	description := c.PostForm("description")
	dismissible := c.PostForm("dismissible") == "on"
	h.renderToast(c, http.StatusOK, title, description, parseVariant(c.PostForm("variant")), dismissible)
}

func parseVariant(s string) toast.Variant {
	switch s {
	case "error", "destructive":
		return toast.VariantError
	case "warning":
		return toast.VariantWarning
	case "info":
		return toast.VariantInfo
	}
	return toast.VariantSuccess
}

func (h *Handler) renderToast(c *gin.Context, status int, title, description string, v toast.Variant, dismissible bool) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)

	_ = toast.Toast(toast.Props{
		Title:         title,
		Description:   description,
		Variant:       v,
		Position:      toast.PositionBottomRight,
		Duration:      2000,
		Dismissible:   dismissible,
		ShowIndicator: false,
		Icon:          true,
	}).Render(c.Request.Context(), c.Writer)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
