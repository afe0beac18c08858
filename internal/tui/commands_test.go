package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestJobBusIDsAreSequentialPerBus(t *testing.T) {
	bus := newJobBus(nil)
	first := bus.nextID(jobKindAsk)
	second := bus.nextID(jobKindIngest)
	if first != "ask-1" || second != "ingest-2" {
		t.Fatalf("unexpected ids %q %q", first, second)
	}
	if bus.ctx == nil {
		t.Fatal("nil context should default to background")
	}
}

func TestExportFileName(t *testing.T) {
	got := exportFileName(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	if got != "chromaseek-20240102-030405.html" {
		t.Fatalf("unexpected export name %q", got)
	}
}

func TestListenersStopOnClosedChannels(t *testing.T) {
	changes := make(chan struct{})
	close(changes)
	if msg := listenForChanges(changes)(); msg != nil {
		t.Fatalf("closed change channel should yield nil, got %T", msg)
	}

	drops := make(chan []string, 1)
	drops <- []string{"a.pdf"}
	msg := listenForDrops(drops)()
	drop, ok := msg.(dropMsg)
	if !ok || len(drop.paths) != 1 {
		t.Fatalf("expected drop batch, got %#v", msg)
	}
	close(drops)
	if msg := listenForDrops(drops)(); msg != nil {
		t.Fatalf("closed drop channel should yield nil, got %T", msg)
	}
	if listenForDrops(nil) != nil {
		t.Fatal("nil drop channel should not produce a command")
	}
}

func TestStatsJobRefreshesCorpus(t *testing.T) {
	m := newTestModel(t)
	msg, err := statsJob(m.ctrl)(context.Background())
	if err != nil {
		t.Fatalf("stats job: %v", err)
	}
	m.Update(jobDoneMsg{Job: job{ID: "stats-1"}, Payload: msg})
	view := plainView(m)
	if !strings.Contains(view, "doc1.pdf  2 KB") {
		t.Fatalf("document list missing\n%s", view)
	}
	if !strings.Contains(view, "3 vectors") {
		t.Fatalf("vector count missing\n%s", view)
	}
}

func TestIngestJobUpdatesVectorCount(t *testing.T) {
	m := newTestModel(t)
	msg, err := ingestJob(m.ctrl)(context.Background())
	if err != nil {
		t.Fatalf("ingest job: %v", err)
	}
	m.Update(jobDoneMsg{Job: job{ID: "ingest-1"}, Payload: msg})
	if m.snap.VectorCount != "3" {
		t.Fatalf("vector count not updated: %q", m.snap.VectorCount)
	}
	if !strings.HasPrefix(m.snap.Notification.Message, "Indexed 3 chunks") {
		t.Fatalf("unexpected notification %q", m.snap.Notification.Message)
	}
}

func TestResetJobFailureNotifies(t *testing.T) {
	m := newTestModel(t)
	msg, err := resetJob(m.ctrl)(context.Background())
	if err != nil {
		t.Fatalf("reset job: %v", err)
	}
	m.Update(jobDoneMsg{Job: job{ID: "reset_index-1"}, Payload: msg})
	if got := m.snap.Notification.Message; got != "Reset failed" {
		t.Fatalf("fixture has no reset endpoint, expected failure toast, got %q", got)
	}
}

func TestJobBusContainsPanics(t *testing.T) {
	bus := newJobBus(context.Background())
	payload, err := bus.run(func(context.Context) (tea.Msg, error) {
		panic("boom")
	})
	if payload != nil || err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("panic should surface as an error, got %v / %v", payload, err)
	}
}

func TestJobFinishRecordsOutcome(t *testing.T) {
	started := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	j := job{ID: "ask-1", Kind: jobKindAsk, State: jobRunning, Started: started}
	ok := j.finish(started.Add(1500*time.Millisecond), nil)
	if ok.State != jobDone || ok.Elapsed != 1500*time.Millisecond {
		t.Fatalf("unexpected settled job %+v", ok)
	}
	failed := j.finish(started, errors.New("offline"))
	if failed.State != jobFailed || failed.Err != "offline" {
		t.Fatalf("unexpected failed job %+v", failed)
	}
}

func TestJobTrackerActivity(t *testing.T) {
	tracker := jobTracker{}
	if !tracker.add(job{ID: "upload-1", Kind: jobKindUpload}) {
		t.Fatal("first job should report itself as the only one")
	}
	if tracker.add(job{ID: "ask-2", Kind: jobKindAsk}) {
		t.Fatal("second job is not the only one")
	}
	tracker.add(job{ID: "ask-3", Kind: jobKindAsk})
	if got := tracker.activity(); got != "asking, uploading" {
		t.Fatalf("unexpected activity %q", got)
	}
	tracker.remove("upload-1")
	if got := tracker.activity(); got != "asking" {
		t.Fatalf("unexpected activity after remove %q", got)
	}
}
