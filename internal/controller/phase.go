package controller

import "sync"

// Phase is the stage shown by the shared status chip.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseUploading
	PhaseIndexing
	PhaseAnswering
	PhaseResetting
)

// Label is the text the status chip shows for the phase.
func (p Phase) Label() string {
	switch p {
	case PhaseUploading:
		return "uploading"
	case PhaseIndexing:
		return "indexing…"
	case PhaseAnswering:
		return "answering…"
	case PhaseResetting:
		return "resetting…"
	default:
		return "idle"
	}
}

// Status is the single shared busy/idle label. Writes are unconditional and
// the last writer wins; workflows running at the same time overwrite each
// other's phase.
type Status struct {
	mu       sync.Mutex
	phase    Phase
	label    string
	onChange func()
}

func newStatus(onChange func()) *Status {
	return &Status{phase: PhaseIdle, label: PhaseIdle.Label(), onChange: onChange}
}

// Set overwrites the label with arbitrary text.
func (s *Status) Set(text string) {
	s.mu.Lock()
	s.label = text
	s.mu.Unlock()
	s.changed()
}

// Enter records phase and shows its label.
func (s *Status) Enter(phase Phase) {
	s.mu.Lock()
	s.phase = phase
	s.label = phase.Label()
	s.mu.Unlock()
	s.changed()
}

// Current returns the phase and label.
func (s *Status) Current() (Phase, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase, s.label
}

func (s *Status) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
