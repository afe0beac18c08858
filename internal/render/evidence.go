package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/csheth/chromaseek/internal/api"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape replaces &, < and > with entities.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// KB formats a byte count as whole kilobytes, rounded to nearest.
func KB(bytes int64) string {
	return fmt.Sprintf("%.0f", math.Round(float64(bytes)/1024))
}

// Score formats a relevance score with three decimals.
func Score(score float64) string {
	return fmt.Sprintf("%.3f", score)
}

// PageLabel returns " p.N", or "" when the page is unknown.
func PageLabel(page *int) string {
	if page == nil {
		return ""
	}
	return fmt.Sprintf(" p.%d", *page)
}

// Passage renders one retrieved passage as a collapsible unit.
func Passage(p api.Passage) string {
	source := p.Source
	if source == "" {
		source = "unknown"
	}
	var b strings.Builder
	b.WriteString(`<details class="passage">`)
	b.WriteString(`<summary><span class="truncate"><b>`)
	b.WriteString(Escape(source))
	b.WriteString(`</b>`)
	b.WriteString(PageLabel(p.Page))
	b.WriteString(` — <span class="chunk">`)
	b.WriteString(Escape(p.ChunkID))
	b.WriteString(`</span></span> <span class="badge">score `)
	b.WriteString(Score(p.Score))
	b.WriteString(`</span></summary>`)
	b.WriteString(`<div class="passage-text">`)
	b.WriteString(Escape(p.Text))
	b.WriteString(`</div></details>`)
	return b.String()
}

// Passages renders passages in the order given.
func Passages(passages []api.Passage) string {
	var b strings.Builder
	for _, p := range passages {
		b.WriteString(Passage(p))
	}
	return b.String()
}

// Citations renders source names as badges separated by a single space.
func Citations(sources []string) string {
	badges := make([]string, 0, len(sources))
	for _, s := range sources {
		badges = append(badges, `<span class="badge">[`+Escape(s)+`]</span>`)
	}
	return strings.Join(badges, " ")
}

// FileList renders the document list of the stats panel.
func FileList(records []api.FileRecord) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(`<li class="doc"><span class="truncate">`)
		b.WriteString(Escape(r.Filename))
		b.WriteString(`</span> <span class="badge">`)
		b.WriteString(KB(r.Bytes))
		b.WriteString(` KB</span></li>`)
	}
	return b.String()
}

// UploadList renders the files saved by the last upload.
func UploadList(records []api.FileRecord) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(`<div class="upload">`)
		b.WriteString(Escape(r.Filename))
		b.WriteString(` <span class="badge">`)
		b.WriteString(KB(r.Bytes))
		b.WriteString(` KB</span></div>`)
	}
	return b.String()
}

// Pending is the interim content of the answer region while a question is in
// flight.
const Pending = `<div class="pending">Thinking…</div>`
