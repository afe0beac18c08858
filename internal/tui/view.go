package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/chromaseek/internal/controller"
	"github.com/csheth/chromaseek/internal/render"
)

const appTitle = "ChromaSeek"

func (m *model) View() string {
	m.refreshViewportIfDirty()
	parts := []string{
		m.headerView(),
		m.notificationView(),
		m.corpusView(),
	}
	if m.focus == focusPicker {
		parts = append(parts, m.pickerView())
	} else {
		parts = append(parts, m.composerView(), m.viewport.View())
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	} else {
		parts = append(parts, helperStyle.Render("? keys • q quit"))
	}
	return joinNonEmpty(parts)
}

func (m *model) headerView() string {
	status := m.snap.Status
	chip := statusIdleStyle.Render(status)
	switch {
	case m.snap.Phase != controller.PhaseIdle:
		chip = statusBusyStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), status))
	case m.busy():
		chip += " " + m.spinner.View() + " " + helperStyle.Render(m.running.activity())
	}
	cells := []string{
		titleStyle.Render(appTitle),
		chip,
		badgeStyle.Render(fmt.Sprintf("top-k %d", m.topK)),
		helperStyle.Render(fmt.Sprintf("t: %s", m.snap.ThemeLabel)),
	}
	return strings.Join(cells, "  ")
}

func (m *model) notificationView() string {
	n := m.snap.Notification
	if !n.Visible {
		return ""
	}
	if n.OK {
		return okStyle.Render("✓ " + n.Message)
	}
	return errorStyle.Render("✗ " + n.Message)
}

func (m *model) corpusView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Documents"))
	b.WriteString(" ")
	b.WriteString(badgeStyle.Render(m.snap.DocCount))
	b.WriteString(" ")
	b.WriteString(helperStyle.Render(fmt.Sprintf("%s vectors", m.snap.VectorCount)))
	docs := m.snap.Docs
	if len(docs) == 0 {
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render("No documents yet. Press u to upload PDFs, then i to index."))
	}
	limit := m.layout.docRows
	for idx, doc := range docs {
		if idx == limit {
			b.WriteRune('\n')
			b.WriteString(helperStyle.Render(fmt.Sprintf("  … %d more", len(docs)-limit)))
			break
		}
		b.WriteRune('\n')
		line := fmt.Sprintf("  %s  %s KB", termSafe(doc.Filename), render.KB(doc.Bytes))
		b.WriteString(m.layout.clip(line))
	}
	if uploads := termSafe(render.PlainText(m.snap.UploadList)); uploads != "" {
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render("Last upload: " + strings.ReplaceAll(uploads, "\n", ", ")))
	}
	return b.String()
}

func (m *model) composerView() string {
	box := composerBoxStyle
	hint := "a: ask • u: upload • i: index"
	if m.focus == focusComposer {
		box = composerFocusStyle
		hint = "Enter: ask • Esc: leave composer"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		box.Render(m.composer.View()),
		helperStyle.Render(hint),
	)
}

func (m *model) pickerView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Select PDFs"))
	b.WriteRune('\n')
	b.WriteString(m.picker.View())
	b.WriteRune('\n')
	if len(m.selection) == 0 {
		b.WriteString(helperStyle.Render("Enter adds a file • Tab uploads • q closes"))
	} else {
		b.WriteString(helperStyle.Render(fmt.Sprintf("%d selected • Tab uploads • q closes", len(m.selection))))
	}
	return pickerBoxStyle.Render(b.String())
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewportDirty = false
	m.viewport.SetContent(m.resultsContent())
}

// resultsContent renders the answer side: answer text, citations, labels and
// the passage list.
func (m *model) resultsContent() string {
	snap := m.snap
	width := m.layout.viewportWidth
	var sections []string

	switch {
	case snap.Answer == render.Pending:
		sections = append(sections, helperStyle.Render(m.spinner.View()+" "+render.PlainText(snap.Answer)))
	case snap.AnswerSource != "":
		sections = append(sections, m.answer.Render(termSafe(snap.AnswerSource), snap.Answer, snap.Dark, width))
	case snap.Answer != "":
		sections = append(sections, wordwrap.String(termSafe(render.PlainText(snap.Answer)), width))
	default:
		sections = append(sections, helperStyle.Render("Answers appear here."))
	}

	if len(snap.SourceNames) > 0 {
		badges := make([]string, 0, len(snap.SourceNames))
		for _, name := range snap.SourceNames {
			badges = append(badges, badgeStyle.Render("["+termSafe(name)+"]"))
		}
		sections = append(sections, strings.Join(badges, " "))
	}

	labels := joinLabels(snap.Latency, snap.RetrievedCount)
	if labels != "" {
		sections = append(sections, helperStyle.Render(labels))
	}

	if passages := m.passagesView(width); passages != "" {
		sections = append(sections, passages)
	}
	return joinNonEmpty(sections)
}

func joinLabels(labels ...string) string {
	var kept []string
	for _, l := range labels {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, " • ")
}

func (m *model) passagesView(width int) string {
	items := m.snap.PassageItems
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Passages"))
	for idx, p := range items {
		b.WriteRune('\n')
		marker := "▸"
		if m.expanded[idx] {
			marker = "▾"
		}
		header := m.layout.clip(fmt.Sprintf("%s %s", marker, passageHeader(p.Source, p.Page, p.ChunkID, p.Score)))
		if idx == m.passageCursor {
			header = currentLineStyle.Render(header)
		}
		b.WriteString(header)
		if m.expanded[idx] {
			b.WriteRune('\n')
			text := wordwrap.String(termSafe(p.Text), width-4)
			b.WriteString(passageTextStyle.Render(indentMultiline(text, "    ")))
		}
	}
	return b.String()
}

func passageHeader(source string, page *int, chunk string, score float64) string {
	source = termSafe(source)
	if source == "" {
		source = "unknown"
	}
	return fmt.Sprintf("%s%s — %s  score %s", source, render.PageLabel(page), termSafe(chunk), render.Score(score))
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"a", "Ask"},
		{"u", "Upload PDFs"},
		{"i", "Index uploads"},
		{"+/-", "Passage count"},
		{"↑/↓", "Move passage"},
		{"enter", "Expand passage"},
		{"y", "Copy answer"},
		{"x", "Clear"},
		{"t", "Toggle theme"},
		{"r", "Refresh stats"},
		{"e", "Export page"},
		{"ctrl+r", "Reset index"},
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	if m.lastExport != "" {
		rows = append(rows, helperStyle.Render("Last export: "+m.lastExport))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}
