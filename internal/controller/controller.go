// Package controller sequences the upload, index and ask workflows of the
// client, owns the shared status phase and keeps the displayed regions
// consistent with the last settled response of each kind.
package controller

import (
	"context"
	"log"
	"time"

	"github.com/atotto/clipboard"

	"github.com/csheth/chromaseek/internal/api"
	"github.com/csheth/chromaseek/internal/telemetry"
)

// Backend is the server API used by the workflows.
type Backend interface {
	Stats(ctx context.Context) (api.StatsResult, error)
	Upload(ctx context.Context, files []api.File) (api.UploadResult, error)
	Ingest(ctx context.Context) (api.IngestResult, error)
	Ask(ctx context.Context, req api.AskRequest) (api.AskResult, error)
	Health(ctx context.Context) error
	ResetIndex(ctx context.Context) (string, error)
}

// Clipboard receives copied answers.
type Clipboard interface {
	WriteAll(text string) error
}

// PrefStore persists the display preference.
type PrefStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Config wires collaborators into a Controller. Only Backend is required.
type Config struct {
	Backend     Backend
	Prefs       PrefStore
	Clipboard   Clipboard
	Recorder    telemetry.Recorder
	NotifyAfter time.Duration
	Scheduler   Scheduler
	Now         func() time.Time
}

// Controller is one client session.
type Controller struct {
	backend   Backend
	prefs     PrefStore
	clipboard Clipboard
	recorder  telemetry.Recorder
	now       func() time.Time

	notifier *Notifier
	status   *Status
	view     *view
	changes  chan struct{}
}

// Snapshot is a consistent copy of everything on screen.
type Snapshot struct {
	Regions
	Phase        Phase
	Status       string
	Notification Notification
}

// New builds a controller with empty regions and an idle status.
func New(cfg Config) *Controller {
	c := &Controller{
		backend:   cfg.Backend,
		prefs:     cfg.Prefs,
		clipboard: cfg.Clipboard,
		recorder:  cfg.Recorder,
		now:       cfg.Now,
		changes:   make(chan struct{}, 1),
	}
	if c.clipboard == nil {
		c.clipboard = systemClipboard{}
	}
	if c.recorder == nil {
		c.recorder = telemetry.Nop{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.notifier = NewNotifier(cfg.NotifyAfter, cfg.Scheduler, c.changed)
	c.status = newStatus(c.changed)
	c.view = newView(c.changed)
	return c
}

// Notifier exposes the notification center.
func (c *Controller) Notifier() *Notifier {
	return c.notifier
}

// Status exposes the shared status chip.
func (c *Controller) Status() *Status {
	return c.status
}

// Changes signals after any displayed value changes. Signals coalesce.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// Snapshot copies the current display state.
func (c *Controller) Snapshot() Snapshot {
	phase, label := c.status.Current()
	return Snapshot{
		Regions:      c.view.snapshot(),
		Phase:        phase,
		Status:       label,
		Notification: c.notifier.Current(),
	}
}

// Start checks the backend and loads the initial stats. A failing backend
// leaves the empty document list and zero counts in place. The stored theme
// is applied separately by RestoreTheme, before anything is drawn.
func (c *Controller) Start(ctx context.Context) {
	if err := c.backend.Health(ctx); err != nil {
		log.Printf("[controller] backend health check failed: %v", err)
	}
	c.RefreshStats(ctx)
}

// withPhase shows phase while fn runs and always returns to idle afterwards.
func (c *Controller) withPhase(phase Phase, fn func()) {
	c.status.Enter(phase)
	defer c.status.Enter(PhaseIdle)
	fn()
}

func (c *Controller) observe(workflow string, started time.Time, err error) {
	outcome := telemetry.OutcomeSuccess
	if err != nil {
		outcome = telemetry.OutcomeFailure
	}
	c.recorder.Observe(workflow, outcome, c.now().Sub(started))
}

func (c *Controller) changed() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func millis(d time.Duration) int64 {
	return d.Round(time.Millisecond).Milliseconds()
}
