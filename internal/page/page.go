// Package page exports the current view as a standalone HTML document.
package page

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/csheth/chromaseek/internal/controller"
)

//go:embed templates/page.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

// Title heads every exported page.
const Title = "ChromaSeek"

type document struct {
	Title        string
	Dark         bool
	Status       string
	Notification controller.Notification
	ThemeLabel   string
	Question     string
	Exported     string

	DocCount       string
	VectorCount    string
	DocList        template.HTML
	UploadList     template.HTML
	Latency        string
	RetrievedCount string
	Answer         template.HTML
	Sources        template.HTML
	Passages       template.HTML
}

// Render writes snap as an HTML page. Region markup is inserted verbatim;
// plain values such as the question and notification are escaped.
func Render(w io.Writer, snap controller.Snapshot, exported time.Time) error {
	doc := document{
		Title:        Title,
		Dark:         snap.Dark,
		Status:       snap.Status,
		Notification: snap.Notification,
		ThemeLabel:   snap.ThemeLabel,
		Question:     snap.Question,
		Exported:     exported.Format(time.RFC3339),

		DocCount:       snap.DocCount,
		VectorCount:    snap.VectorCount,
		DocList:        template.HTML(snap.DocList),
		UploadList:     template.HTML(snap.UploadList),
		Latency:        snap.Latency,
		RetrievedCount: snap.RetrievedCount,
		Answer:         template.HTML(snap.Answer),
		Sources:        template.HTML(snap.Sources),
		Passages:       template.HTML(snap.Passages),
	}
	if err := pageTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// WriteFile renders snap into path, creating parent directories.
func WriteFile(path string, snap controller.Snapshot, exported time.Time) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := Render(f, snap, exported); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
