package tuitest

import (
	"bytes"
	"io"
)

// terminalQueries are the capability queries lipgloss and bubbletea send on
// startup, paired with the answer a dark xterm would give.
var terminalQueries = []struct {
	query  []byte
	answer []byte
}{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

const (
	responderKeep = 64
	responderMax  = 256
)

type terminalResponder struct {
	w       io.Writer
	pending []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, pending: make([]byte, 0, responderMax)}
}

// Process answers every query found in chunk. A short tail is kept so queries
// split across reads still match.
func (tr *terminalResponder) Process(chunk []byte) {
	tr.pending = append(tr.pending, chunk...)
	for tr.answerNext() {
	}
	if len(tr.pending) > responderMax {
		tr.pending = append(tr.pending[:0], tr.pending[len(tr.pending)-responderKeep:]...)
	}
}

// answerNext replies to the earliest pending query and drops the bytes up to it.
func (tr *terminalResponder) answerNext() bool {
	first, end := -1, 0
	var answer []byte
	for _, q := range terminalQueries {
		idx := bytes.Index(tr.pending, q.query)
		if idx < 0 || (first >= 0 && idx >= first) {
			continue
		}
		first, end, answer = idx, idx+len(q.query), q.answer
	}
	if first < 0 {
		return false
	}
	tr.pending = tr.pending[end:]
	_, _ = tr.w.Write(answer)
	return true
}
