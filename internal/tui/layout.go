package tui

import (
	"strings"

	"github.com/muesli/reflow/truncate"
)

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	layoutChrome              = 12
	minDocRows                = 3
	maxDocRows                = 10
)

// pageLayout splits the terminal between the corpus panel and the scrolling
// answer viewport.
type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
	docRows        int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
		docRows:        5,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth

	l.docRows = height / 6
	if l.docRows < minDocRows {
		l.docRows = minDocRows
	}
	if l.docRows > maxDocRows {
		l.docRows = maxDocRows
	}
	usable := height - layoutChrome - l.docRows
	if usable < 6 {
		usable = 6
	}
	l.viewportHeight = usable
}

func (l pageLayout) clip(line string) string {
	return truncate.StringWithTail(line, uint(l.viewportWidth), "…")
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
