package components

import (
	"context"
	"fmt"
	"io"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

const exportButtonBase = "flex items-center gap-2 px-4 py-1.5 rounded-md text-sm font-medium transition-all duration-200"

// ExportButton renders the download trigger in its disabled, ready or busy
// state. Only the ready state can be clicked.
func ExportButton(d ExportButtonData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		label := "Download Poster"
		state := "bg-gray-100 text-gray-400 cursor-not-allowed"
		disabled := " disabled"
		switch d.State {
		case "ready":
			state = "bg-black text-white hover:bg-gray-800 shadow-sm"
			disabled = ""
		case "busy":
			label = "Processing..."
		}
		_, err := fmt.Fprintf(w,
			`<button id="export-button" type="button" class="%s" data-session="%s" data-state="%s"%s>%s</button>`,
			templ.EscapeString(twmerge.Merge(exportButtonBase, state)),
			templ.EscapeString(d.SessionID),
			templ.EscapeString(d.State),
			disabled,
			label,
		)
		return err
	})
}
