package handlers

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cristianadrielbraun/posterqr/internal/placement"
	"github.com/cristianadrielbraun/posterqr/internal/qrrender"
)

const maxContentLength = 4096

// normalizeHTTPURL validates and normalizes a URL string for QR generation.
// It ensures an http/https scheme, a non-empty hostname, and returns a cleaned absolute URL.
func normalizeHTTPURL(s string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", fmt.Errorf("URL parameter is required")
	}
	// If missing scheme, default to https
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	u, err := url.ParseRequestURI(v)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("only http and https URLs are supported")
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL must include a valid host")
	}
	if len(v) > maxContentLength {
		return "", fmt.Errorf("URL is too long")
	}
	return u.String(), nil
}

// QRCodeHandler serves a standalone QR symbol. url is normalized to an
// http(s) address; text is encoded verbatim. format is png (default), jpg or
// svg.
func (h *Handler) QRCodeHandler(c *gin.Context) {
	content, err := qrContent(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "png"))
	if format == "jpeg" {
		format = "jpg"
	}
	if format != "png" && format != "svg" && format != "jpg" {
		format = "png"
	}

	fg := placement.ParseColorOr(c.Query("fg"), color.RGBA{0, 0, 0, 255})
	bg := placement.ParseColorOr(c.Query("bg"), color.RGBA{255, 255, 255, 255})

	c.Header("Cache-Control", "public, max-age=3600")
	if c.Query("download") == "1" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="qr-code.%s"`, format))
	}

	if format == "svg" {
		size := queryInt(c, "size", 512, 64, 4096)
		doc, err := h.renderer.Vector(content, fg, bg, size)
		if err != nil {
			h.log.Error("render vector qr", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create QR code"})
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", doc)
		return
	}

	data, err := qrrender.StandalonePNG(content, qrrender.PNGOptions{
		Foreground:  fg,
		Background:  bg,
		ModuleWidth: uint8(queryInt(c, "module", 16, 1, 64)),
		Border:      queryInt(c, "border", 4, 0, 64),
	})
	if err != nil {
		h.log.Error("render png qr", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create QR code"})
		return
	}

	if format == "jpg" {
		out, err := flattenJPEG(data, bg)
		if err != nil {
			h.log.Error("encode jpeg qr", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode JPEG"})
			return
		}
		c.Data(http.StatusOK, "image/jpeg", out)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func qrContent(c *gin.Context) (string, error) {
	if raw := strings.TrimSpace(c.Query("url")); raw != "" {
		return normalizeHTTPURL(raw)
	}
	text := c.Query("text")
	if text == "" {
		return "", fmt.Errorf("url or text parameter is required")
	}
	if len(text) > maxContentLength {
		return "", fmt.Errorf("text is too long")
	}
	return text, nil
}

// flattenJPEG composites a PNG over an opaque background and encodes it as
// JPEG. A transparent background falls back to white.
func flattenJPEG(pngData []byte, bg color.RGBA) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, err
	}
	fill := color.NRGBA{bg.R, bg.G, bg.B, 255}
	if bg.A == 0 {
		fill = color.NRGBA{255, 255, 255, 255}
	}
	b := img.Bounds()
	out := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), fill), img, image.Pt(0, 0), 1)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(92)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func queryInt(c *gin.Context, key string, fallback, lo, hi int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return min(max(v, lo), hi)
}
