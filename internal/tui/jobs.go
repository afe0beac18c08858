package tui

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type jobKind string

const (
	jobKindStart  jobKind = "start"
	jobKindUpload jobKind = "upload"
	jobKindIngest jobKind = "ingest"
	jobKindAsk    jobKind = "ask"
	jobKindStats  jobKind = "stats"
	jobKindReset  jobKind = "reset_index"
	jobKindExport jobKind = "export"
)

// activity is the header wording for a job still in flight.
func (k jobKind) activity() string {
	switch k {
	case jobKindStart:
		return "connecting"
	case jobKindUpload:
		return "uploading"
	case jobKindIngest:
		return "indexing"
	case jobKindAsk:
		return "asking"
	case jobKindStats:
		return "refreshing"
	case jobKindReset:
		return "resetting"
	case jobKindExport:
		return "exporting"
	}
	return string(k)
}

type jobState string

const (
	jobRunning jobState = "running"
	jobDone    jobState = "succeeded"
	jobFailed  jobState = "failed"
)

type job struct {
	ID      string
	Kind    jobKind
	State   jobState
	Started time.Time
	Elapsed time.Duration
	Err     string
}

// finish settles j at the given time and logs the outcome.
func (j job) finish(at time.Time, err error) job {
	j.Elapsed = at.Sub(j.Started)
	j.State = jobDone
	if err != nil {
		j.State = jobFailed
		j.Err = err.Error()
	}
	log.Printf("[jobs] %s %s (duration=%s, err=%v)", j.ID, j.State, j.Elapsed, err)
	return j
}

type jobStartedMsg struct {
	Job job
}

type jobDoneMsg struct {
	Job     job
	Payload tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

// jobBus runs workflows off the update loop. Jobs are not serialised; an
// upload, an ingest and an ask may all be in flight together.
type jobBus struct {
	ctx context.Context
	now func() time.Time
	seq atomic.Int64
}

func newJobBus(ctx context.Context) *jobBus {
	if ctx == nil {
		ctx = context.Background()
	}
	return &jobBus{ctx: ctx, now: time.Now}
}

func (b *jobBus) nextID(kind jobKind) string {
	return fmt.Sprintf("%s-%d", kind, b.seq.Add(1))
}

// Start announces the job, then runs it on the bus context.
func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	j := job{ID: b.nextID(kind), Kind: kind, State: jobRunning, Started: b.now()}
	announce := func() tea.Msg {
		return jobStartedMsg{Job: j}
	}
	run := func() tea.Msg {
		payload, err := b.run(runner)
		return jobDoneMsg{Job: j.finish(b.now(), err), Payload: payload}
	}
	return tea.Sequence(announce, run)
}

// run turns a panicking workflow into a failed job.
func (b *jobBus) run(runner jobRunner) (payload tea.Msg, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return runner(b.ctx)
}

// jobTracker holds the jobs the model is still waiting on.
type jobTracker map[string]job

// add records j and reports whether it is the only job in flight.
func (t jobTracker) add(j job) bool {
	t[j.ID] = j
	return len(t) == 1
}

func (t jobTracker) remove(id string) {
	delete(t, id)
}

// activity lists the distinct kinds in flight, e.g. "asking, uploading".
func (t jobTracker) activity() string {
	seen := map[string]bool{}
	var words []string
	for _, j := range t {
		word := j.Kind.activity()
		if !seen[word] {
			seen[word] = true
			words = append(words, word)
		}
	}
	sort.Strings(words)
	return strings.Join(words, ", ")
}
