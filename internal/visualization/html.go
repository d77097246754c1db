package visualization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/nvandessel/firstmover/internal/simulation"
)

// dashboardTemplateData holds data passed to the HTML template.
// SnapshotJSON is pre-sanitized JSON (via json.HTMLEscape) safe for inline <script>.
type dashboardTemplateData struct {
	Title        string
	SnapshotJSON template.JS
	Live         bool
}

// RenderHTML produces the dashboard page seeded with snap. When live is true
// the page subscribes to /ws and posts controls to /api; otherwise it is a
// static report of snap.
func RenderHTML(snap simulation.Snapshot, live bool) ([]byte, error) {
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	tmplBytes, err := templates.ReadFile("templates/dashboard.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}

	tmpl, err := template.New("dashboard").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, snapJSON)

	var buf bytes.Buffer
	data := dashboardTemplateData{
		Title: "Early vs. Wait",
		// Pre-sanitized via json.HTMLEscape, so </script> cannot break out.
		SnapshotJSON: template.JS(escaped.String()), // #nosec G203
		Live:         live,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}

	return buf.Bytes(), nil
}
