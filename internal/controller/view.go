package controller

import (
	"sync"

	"github.com/csheth/chromaseek/internal/api"
)

// Regions holds everything the client displays. Markup fields are produced
// by package render and are safe to insert into a page as-is.
type Regions struct {
	UploadList  string
	VectorCount string
	DocList     string
	DocCount    string
	Docs        []api.FileRecord

	Question       string
	Answer         string
	AnswerSource   string
	Sources        string
	SourceNames    []string
	Passages       string
	PassageItems   []api.Passage
	RetrievedCount string
	Latency        string

	Dark       bool
	ThemeLabel string
}

type view struct {
	mu       sync.Mutex
	regions  Regions
	onChange func()
}

func newView(onChange func()) *view {
	return &view{
		regions: Regions{
			VectorCount: "0",
			DocCount:    "0",
			ThemeLabel:  themeLabel(false),
		},
		onChange: onChange,
	}
}

func (v *view) update(fn func(r *Regions)) {
	v.mu.Lock()
	fn(&v.regions)
	v.mu.Unlock()
	if v.onChange != nil {
		v.onChange()
	}
}

func (v *view) snapshot() Regions {
	v.mu.Lock()
	defer v.mu.Unlock()
	r := v.regions
	r.Docs = append([]api.FileRecord(nil), v.regions.Docs...)
	r.SourceNames = append([]string(nil), v.regions.SourceNames...)
	r.PassageItems = append([]api.Passage(nil), v.regions.PassageItems...)
	return r
}

// clearResults empties the answer-side regions. Used before a question is
// sent and by Clear.
func (r *Regions) clearResults() {
	r.Answer = ""
	r.AnswerSource = ""
	r.Sources = ""
	r.SourceNames = nil
	r.Passages = ""
	r.PassageItems = nil
	r.RetrievedCount = ""
	r.Latency = ""
}
