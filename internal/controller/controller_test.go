package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/chromaseek/internal/api"
	"github.com/csheth/chromaseek/internal/prefs"
	"github.com/csheth/chromaseek/internal/telemetry"
)

// stepClock advances by step on every read so elapsed times are exact.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

type observation struct {
	workflow string
	outcome  string
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (r *fakeRecorder) Observe(workflow, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{workflow, outcome})
}

func (r *fakeRecorder) all() []observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]observation(nil), r.obs...)
}

// fakeServer is a scripted backend. A nil handler field answers 500.
type fakeServer struct {
	mu     sync.Mutex
	stats  http.HandlerFunc
	upload http.HandlerFunc
	ingest http.HandlerFunc
	ask    http.HandlerFunc

	askCalls   atomic.Int32
	statsCalls atomic.Int32
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var h http.HandlerFunc
	f.mu.Lock()
	switch r.URL.Path {
	case "/api/stats":
		f.statsCalls.Add(1)
		h = f.stats
	case "/api/upload":
		h = f.upload
	case "/api/ingest":
		h = f.ingest
	case "/api/ask":
		f.askCalls.Add(1)
		h = f.ask
	case "/api/health":
		h = jsonHandler(`{"ok":true}`)
	}
	f.mu.Unlock()
	if h == nil {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	h(w, r)
}

func (f *fakeServer) set(fn func(f *fakeServer)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

type harness struct {
	ctrl     *Controller
	server   *fakeServer
	clip     *fakeClipboard
	recorder *fakeRecorder
	sched    *fakeScheduler
}

func newHarness(t *testing.T, server *fakeServer) *harness {
	t.Helper()
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	h := &harness{
		server:   server,
		clip:     &fakeClipboard{},
		recorder: &fakeRecorder{},
		sched:    &fakeScheduler{},
	}
	clock := &stepClock{t: time.Unix(1700000000, 0), step: 10 * time.Millisecond}
	h.ctrl = New(Config{
		Backend:   api.New(api.Config{BaseURL: ts.URL}),
		Prefs:     prefs.Open(filepath.Join(t.TempDir(), "prefs.json")),
		Clipboard: h.clip,
		Recorder:  h.recorder,
		Scheduler: h.sched.Schedule,
		Now:       clock.Now,
	})
	return h
}

const askOK = `{"answer":"**hi** there","sources":["doc1"],"passages":[{"source":"doc1","page":2,"chunk_id":"c1","score":0.5,"text":"ctx"}],"retrieved":1}`

func TestAskRendersAnswerCitationsAndPassages(t *testing.T) {
	requests := make(chan api.AskRequest, 1)
	server := &fakeServer{ask: func(w http.ResponseWriter, r *http.Request) {
		var req api.AskRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		requests <- req
		jsonHandler(askOK)(w, r)
	}}
	h := newHarness(t, server)

	require.NoError(t, h.ctrl.Ask(context.Background(), "  What is X?  ", 0))
	got := <-requests

	assert.Equal(t, "What is X?", got.Question)
	assert.Equal(t, DefaultTopK, got.TopK)

	snap := h.ctrl.Snapshot()
	assert.Contains(t, snap.Answer, "<strong>hi</strong>")
	assert.Equal(t, `<span class="badge">[doc1]</span>`, snap.Sources)
	assert.Equal(t, "1 passages", snap.RetrievedCount)
	assert.Equal(t, "Latency: 10 ms", snap.Latency)
	assert.Contains(t, snap.Passages, "<b>doc1</b> p.2")
	assert.Contains(t, snap.Passages, `<span class="chunk">c1</span>`)
	assert.Contains(t, snap.Passages, "score 0.500")
	assert.Contains(t, snap.Passages, "ctx")
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, "idle", snap.Status)
	assert.Equal(t, Notification{Message: "Answer ready", OK: true, Visible: true}, snap.Notification)
	assert.Equal(t, []observation{{workflowAsk, telemetry.OutcomeSuccess}}, h.recorder.all())
}

func TestAskBlankQuestionChangesNothing(t *testing.T) {
	server := &fakeServer{ask: jsonHandler(askOK)}
	h := newHarness(t, server)
	require.NoError(t, h.ctrl.Ask(context.Background(), "first", 6))
	before := h.ctrl.Snapshot()

	err := h.ctrl.Ask(context.Background(), "   \t", 6)
	require.ErrorIs(t, err, ErrEmptyQuestion)

	after := h.ctrl.Snapshot()
	assert.Equal(t, int32(1), server.askCalls.Load(), "blank question must not reach the backend")
	assert.Equal(t, before.Regions, after.Regions)
	assert.Equal(t, PhaseIdle, after.Phase)
	assert.Equal(t, Notification{Message: "Type a question", OK: true, Visible: true}, after.Notification)
}

func TestAskFailureEmptiesAnswer(t *testing.T) {
	h := newHarness(t, &fakeServer{})
	require.NoError(t, h.ctrl.Ask(context.Background(), "why?", 3))

	snap := h.ctrl.Snapshot()
	assert.Empty(t, snap.Answer)
	assert.Empty(t, snap.Sources)
	assert.Empty(t, snap.Passages)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, Notification{Message: "Ask failed", OK: false, Visible: true}, snap.Notification)
	assert.Equal(t, []observation{{workflowAsk, telemetry.OutcomeFailure}}, h.recorder.all())
}

func TestAskShowsAnsweringWhileInFlight(t *testing.T) {
	var ctrl atomic.Pointer[Controller]
	seen := make(chan Snapshot, 1)
	server := &fakeServer{ask: func(w http.ResponseWriter, r *http.Request) {
		seen <- ctrl.Load().Snapshot()
		jsonHandler(askOK)(w, r)
	}}
	h := newHarness(t, server)
	ctrl.Store(h.ctrl)

	require.NoError(t, h.ctrl.Ask(context.Background(), "q", 4))
	during := <-seen
	assert.Equal(t, PhaseAnswering, during.Phase)
	assert.Contains(t, during.Answer, "Thinking")
	assert.Equal(t, PhaseIdle, h.ctrl.Snapshot().Phase)
}

func TestIngestFailureKeepsVectorCount(t *testing.T) {
	server := &fakeServer{stats: jsonHandler(`{"collection_count":5,"pdfs":[]}`)}
	h := newHarness(t, server)
	h.ctrl.RefreshStats(context.Background())
	require.Equal(t, "5", h.ctrl.Snapshot().VectorCount)

	h.ctrl.Ingest(context.Background())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, "5", snap.VectorCount)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, Notification{Message: "Ingest failed", OK: false, Visible: true}, snap.Notification)
}

func TestIngestSuccessUpdatesCount(t *testing.T) {
	server := &fakeServer{
		stats:  jsonHandler(`{"collection_count":12,"pdfs":[{"filename":"a.pdf","bytes":2048}]}`),
		ingest: jsonHandler(`{"vectors":4,"collection_count":12}`),
	}
	h := newHarness(t, server)

	h.ctrl.Ingest(context.Background())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, "12", snap.VectorCount)
	assert.Equal(t, "1", snap.DocCount)
	assert.Equal(t, int32(1), server.statsCalls.Load())
	assert.Equal(t, Notification{Message: "Indexed 4 chunks in 10 ms", OK: true, Visible: true}, snap.Notification)
}

func TestUploadRendersSavedFilesAndRefreshesStats(t *testing.T) {
	server := &fakeServer{
		upload: jsonHandler(`{"saved":[{"filename":"a.pdf","bytes":0}],"total":1}`),
		stats:  jsonHandler(`{"collection_count":0,"pdfs":[{"filename":"a.pdf","bytes":0}]}`),
	}
	h := newHarness(t, server)

	h.ctrl.Upload(context.Background(), []api.File{{Name: "a.pdf", Data: nil}})

	snap := h.ctrl.Snapshot()
	assert.Contains(t, snap.UploadList, "a.pdf")
	assert.Contains(t, snap.UploadList, "0 KB")
	assert.Equal(t, "1", snap.DocCount)
	assert.Contains(t, snap.DocList, "a.pdf")
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, Notification{Message: "Uploaded 1 file(s) in 10 ms", OK: true, Visible: true}, snap.Notification)
}

func TestUploadEmptySelectionDoesNothing(t *testing.T) {
	server := &fakeServer{}
	h := newHarness(t, server)

	h.ctrl.Upload(context.Background(), nil)
	h.ctrl.UploadPaths(context.Background(), nil)

	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Notification.Visible)
	assert.Empty(t, h.recorder.all())
	assert.Equal(t, int32(0), server.statsCalls.Load())
}

func TestUploadFailureLeavesListUntouched(t *testing.T) {
	server := &fakeServer{upload: jsonHandler(`{"saved":[{"filename":"old.pdf","bytes":1024}],"total":1}`)}
	h := newHarness(t, server)
	h.ctrl.Upload(context.Background(), []api.File{{Name: "old.pdf", Data: []byte("x")}})
	before := h.ctrl.Snapshot().UploadList

	server.set(func(f *fakeServer) { f.upload = nil })
	h.ctrl.Upload(context.Background(), []api.File{{Name: "new.pdf", Data: []byte("y")}})

	snap := h.ctrl.Snapshot()
	assert.Equal(t, before, snap.UploadList)
	assert.Equal(t, Notification{Message: "Upload failed", OK: false, Visible: true}, snap.Notification)
	assert.Equal(t, PhaseIdle, snap.Phase)
}

func TestUploadPathsReportsUnreadableFile(t *testing.T) {
	h := newHarness(t, &fakeServer{})
	h.ctrl.UploadPaths(context.Background(), []string{filepath.Join(t.TempDir(), "missing.pdf")})

	snap := h.ctrl.Snapshot()
	assert.Equal(t, "Upload failed", snap.Notification.Message)
	assert.Equal(t, []observation{{workflowUpload, telemetry.OutcomeFailure}}, h.recorder.all())
}

func TestRefreshStatsIsIdempotent(t *testing.T) {
	server := &fakeServer{stats: jsonHandler(`{"collection_count":3,"pdfs":[{"filename":"a.pdf","bytes":1536},{"filename":"b.pdf","bytes":10}]}`)}
	h := newHarness(t, server)

	h.ctrl.RefreshStats(context.Background())
	first := h.ctrl.Snapshot()
	h.ctrl.RefreshStats(context.Background())
	second := h.ctrl.Snapshot()

	assert.Equal(t, first.Regions, second.Regions)
	assert.Equal(t, "2", second.DocCount)
	assert.Equal(t, 2, strings.Count(second.DocList, `<li class="doc">`))
	assert.Contains(t, second.DocList, "2 KB")
}

func TestRefreshStatsFailureKeepsValues(t *testing.T) {
	server := &fakeServer{stats: jsonHandler(`{"collection_count":7,"pdfs":[{"filename":"a.pdf","bytes":1}]}`)}
	h := newHarness(t, server)
	h.ctrl.RefreshStats(context.Background())
	before := h.ctrl.Snapshot()

	server.set(func(f *fakeServer) { f.stats = nil })
	h.ctrl.RefreshStats(context.Background())

	after := h.ctrl.Snapshot()
	assert.Equal(t, before.Regions, after.Regions)
	assert.Equal(t, Notification{Message: "Failed to load stats", OK: false, Visible: true}, after.Notification)
}

func TestStartWithUnreachableBackend(t *testing.T) {
	ctrl := New(Config{
		Backend:   api.New(api.Config{BaseURL: "http://127.0.0.1:1"}),
		Scheduler: (&fakeScheduler{}).Schedule,
	})
	ctrl.Start(context.Background())

	snap := ctrl.Snapshot()
	assert.Equal(t, "0", snap.VectorCount)
	assert.Equal(t, "0", snap.DocCount)
	assert.Empty(t, snap.DocList)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, "Failed to load stats", snap.Notification.Message)
}

func TestCopyAnswer(t *testing.T) {
	h := newHarness(t, &fakeServer{ask: jsonHandler(askOK)})

	h.ctrl.CopyAnswer()
	assert.Empty(t, h.clip.text, "nothing to copy before an answer")
	assert.False(t, h.ctrl.Snapshot().Notification.Visible)

	require.NoError(t, h.ctrl.Ask(context.Background(), "q", 6))
	h.ctrl.CopyAnswer()
	assert.Equal(t, "hi there", h.clip.text)
	assert.Equal(t, "Copied", h.ctrl.Snapshot().Notification.Message)

	h.clip.err = errors.New("no clipboard")
	h.ctrl.CopyAnswer()
	assert.Equal(t, Notification{Message: "Copy failed", OK: false, Visible: true}, h.ctrl.Snapshot().Notification)
}

func TestClearEmptiesResultsAndQuestion(t *testing.T) {
	server := &fakeServer{
		ask:   jsonHandler(askOK),
		stats: jsonHandler(`{"collection_count":1,"pdfs":[{"filename":"a.pdf","bytes":1}]}`),
	}
	h := newHarness(t, server)
	h.ctrl.RefreshStats(context.Background())
	h.ctrl.SetQuestion("q")
	require.NoError(t, h.ctrl.Ask(context.Background(), "q", 6))

	h.ctrl.Clear()

	snap := h.ctrl.Snapshot()
	assert.Empty(t, snap.Question)
	assert.Empty(t, snap.Answer)
	assert.Empty(t, snap.Sources)
	assert.Empty(t, snap.Passages)
	assert.Empty(t, snap.RetrievedCount)
	assert.Empty(t, snap.Latency)
	assert.Equal(t, "1", snap.DocCount, "clear leaves the corpus panel alone")
}

func TestThemeTogglePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	store := prefs.Open(path)
	ctrl := New(Config{Backend: api.New(api.Config{}), Prefs: store})

	ctrl.RestoreTheme()
	assert.False(t, ctrl.Snapshot().Dark)
	assert.Equal(t, "Dark", ctrl.Snapshot().ThemeLabel)

	ctrl.ToggleTheme()
	assert.True(t, ctrl.Snapshot().Dark)
	assert.Equal(t, "Light", ctrl.Snapshot().ThemeLabel)
	value, ok, err := store.Get(prefs.ThemeKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, prefs.ThemeDark, value)

	restored := New(Config{Backend: api.New(api.Config{}), Prefs: prefs.Open(path)})
	restored.RestoreTheme()
	assert.True(t, restored.Snapshot().Dark)
}

func TestStartLeavesThemeAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, prefs.Open(path).Set(prefs.ThemeKey, prefs.ThemeDark))
	h := newHarness(t, &fakeServer{stats: jsonHandler(`{"collection_count":0,"pdfs":[]}`)})
	h.ctrl.prefs = prefs.Open(path)

	h.ctrl.RestoreTheme()
	h.ctrl.ToggleTheme()
	h.ctrl.Start(context.Background())

	assert.False(t, h.ctrl.Snapshot().Dark, "a toggle made before startup finishes must survive it")
	assert.Equal(t, "Dark", h.ctrl.Snapshot().ThemeLabel)
}

func TestClampTopK(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultTopK},
		{-3, DefaultTopK},
		{1, 1},
		{6, 6},
		{20, 20},
		{21, MaxTopK},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampTopK(tt.in), "ClampTopK(%d)", tt.in)
	}
}

// blockingBackend holds each call until its gate is released.
type blockingBackend struct {
	ingestGate chan struct{}
	askGate    chan struct{}
	entered    chan string
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{
		ingestGate: make(chan struct{}),
		askGate:    make(chan struct{}),
		entered:    make(chan string, 4),
	}
}

func (b *blockingBackend) Stats(context.Context) (api.StatsResult, error) {
	n := 2
	return api.StatsResult{CollectionCount: &n}, nil
}

func (b *blockingBackend) Upload(context.Context, []api.File) (api.UploadResult, error) {
	return api.UploadResult{}, nil
}

func (b *blockingBackend) Ingest(context.Context) (api.IngestResult, error) {
	b.entered <- "ingest"
	<-b.ingestGate
	n := 2
	return api.IngestResult{Vectors: &n}, nil
}

func (b *blockingBackend) Ask(_ context.Context, req api.AskRequest) (api.AskResult, error) {
	b.entered <- "ask"
	<-b.askGate
	return api.AskResult{Answer: "late " + req.Question, Sources: []string{"s"}}, nil
}

func (b *blockingBackend) Health(context.Context) error { return nil }

func (b *blockingBackend) ResetIndex(context.Context) (string, error) { return "ok", nil }

func TestConcurrentWorkflowsShareOnePhase(t *testing.T) {
	backend := newBlockingBackend()
	ctrl := New(Config{Backend: backend, Scheduler: (&fakeScheduler{}).Schedule})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); ctrl.Ingest(context.Background()) }()
	<-backend.entered
	go func() { defer wg.Done(); _ = ctrl.Ask(context.Background(), "q", 6) }()
	<-backend.entered
	assert.Equal(t, PhaseAnswering, ctrl.Snapshot().Phase)

	// The first workflow to settle resets the shared phase while the other
	// is still in flight.
	close(backend.ingestGate)
	require.Eventually(t, func() bool { return ctrl.Snapshot().Phase == PhaseIdle }, time.Second, time.Millisecond)
	assert.Equal(t, "2", ctrl.Snapshot().VectorCount)

	close(backend.askGate)
	wg.Wait()
	assert.Equal(t, PhaseIdle, ctrl.Snapshot().Phase)
}

func TestLateAnswerRendersAfterClear(t *testing.T) {
	backend := newBlockingBackend()
	ctrl := New(Config{Backend: backend, Scheduler: (&fakeScheduler{}).Schedule})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Ask(context.Background(), "q", 6)
	}()
	<-backend.entered
	ctrl.Clear()
	assert.Empty(t, ctrl.Snapshot().Answer)

	close(backend.askGate)
	<-done
	snap := ctrl.Snapshot()
	assert.Contains(t, snap.Answer, "late q")
	assert.Equal(t, `<span class="badge">[s]</span>`, snap.Sources)
}

func TestChangesSignalCoalesces(t *testing.T) {
	ctrl := New(Config{Backend: newBlockingBackend(), Scheduler: (&fakeScheduler{}).Schedule})
	ctrl.SetQuestion("a")
	ctrl.SetQuestion("b")
	ctrl.ToggleTheme()

	select {
	case <-ctrl.Changes():
	default:
		t.Fatal("expected a change signal")
	}
	select {
	case <-ctrl.Changes():
		t.Fatal("signals should coalesce")
	default:
	}
}
