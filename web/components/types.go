package components

// ExportButtonData drives the export trigger. State is one of "disabled",
// "ready" or "busy".
type ExportButtonData struct {
	SessionID string
	State     string
}
