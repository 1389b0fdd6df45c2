// Package toast renders notification toasts as HTML fragments for HTMX swaps.
package toast

import (
	"context"
	"fmt"
	"io"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

type Variant string

const (
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

type Position string

const (
	PositionTopRight    Position = "top-right"
	PositionBottomRight Position = "bottom-right"
	PositionBottomLeft  Position = "bottom-left"
)

// Props configures a toast.
type Props struct {
	Title         string
	Description   string
	Variant       Variant
	Position      Position
	Duration      int // milliseconds, 0 keeps the toast until dismissed
	Dismissible   bool
	ShowIndicator bool
	Icon          bool
	Class         string
}

var variantClasses = map[Variant]string{
	VariantSuccess: "border-green-200 bg-green-50 text-green-900",
	VariantError:   "border-red-200 bg-red-50 text-red-900",
	VariantWarning: "border-yellow-200 bg-yellow-50 text-yellow-900",
	VariantInfo:    "border-blue-200 bg-blue-50 text-blue-900",
}

var positionClasses = map[Position]string{
	PositionTopRight:    "top-4 right-4",
	PositionBottomRight: "bottom-4 right-4",
	PositionBottomLeft:  "bottom-4 left-4",
}

var icons = map[Variant]string{
	VariantSuccess: "✓",
	VariantError:   "!",
	VariantWarning: "!",
	VariantInfo:    "i",
}

// Toast renders p.
func Toast(p Props) templ.Component {
	if p.Variant == "" {
		p.Variant = VariantInfo
	}
	if p.Position == "" {
		p.Position = PositionBottomRight
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := twmerge.Merge(
			"fixed z-50 flex w-80 items-start gap-3 rounded-md border bg-white p-4 text-sm shadow-lg",
			positionClasses[p.Position],
			variantClasses[p.Variant],
			p.Class,
		)
		role := "status"
		if p.Variant == VariantError {
			role = "alert"
		}
		if _, err := fmt.Fprintf(w, `<div class="%s" role="%s" data-toast data-variant="%s" data-duration="%d">`,
			templ.EscapeString(class), role, templ.EscapeString(string(p.Variant)), p.Duration); err != nil {
			return err
		}
		if p.Icon {
			if _, err := fmt.Fprintf(w, `<span class="font-semibold" aria-hidden="true">%s</span>`, icons[p.Variant]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<div class="flex-1"><p class="font-medium">%s</p>`, templ.EscapeString(p.Title)); err != nil {
			return err
		}
		if p.Description != "" {
			if _, err := fmt.Fprintf(w, `<p class="mt-1 opacity-80">%s</p>`, templ.EscapeString(p.Description)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</div>`); err != nil {
			return err
		}
		if p.Dismissible {
			if _, err := io.WriteString(w, `<button type="button" class="opacity-60 hover:opacity-100" data-toast-dismiss aria-label="Dismiss">×</button>`); err != nil {
				return err
			}
		}
		if p.ShowIndicator && p.Duration > 0 {
			if _, err := io.WriteString(w, `<div class="absolute bottom-0 left-0 h-0.5 w-full bg-current opacity-30" data-toast-indicator></div>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
