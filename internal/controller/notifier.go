package controller

import (
	"sync"
	"time"
)

// DefaultNotifyAfter is how long a notification stays visible.
const DefaultNotifyAfter = 2200 * time.Millisecond

// Timer is the part of *time.Timer the notifier needs.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler func(d time.Duration, f func()) Timer

// RealScheduler schedules with time.AfterFunc.
func RealScheduler(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Notification is the transient message currently on screen.
type Notification struct {
	Message string
	OK      bool
	Visible bool
}

// Notifier shows one message at a time. Each call replaces the visible
// message and restarts the hide timer.
type Notifier struct {
	mu       sync.Mutex
	delay    time.Duration
	schedule Scheduler
	current  Notification
	gen      uint64
	timer    Timer
	onChange func()
}

// NewNotifier builds a notifier. Zero values pick the defaults.
func NewNotifier(delay time.Duration, schedule Scheduler, onChange func()) *Notifier {
	if delay <= 0 {
		delay = DefaultNotifyAfter
	}
	if schedule == nil {
		schedule = RealScheduler
	}
	return &Notifier{delay: delay, schedule: schedule, onChange: onChange}
}

// Notify shows message. A nil notifier ignores the call.
func (n *Notifier) Notify(message string, ok bool) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.gen++
	gen := n.gen
	n.current = Notification{Message: message, OK: ok, Visible: true}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = n.schedule(n.delay, func() { n.hide(gen) })
	n.mu.Unlock()
	n.changed()
}

// Current returns the latest notification.
func (n *Notifier) Current() Notification {
	if n == nil {
		return Notification{}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Notifier) hide(gen uint64) {
	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.current.Visible = false
	n.timer = nil
	n.mu.Unlock()
	n.changed()
}

func (n *Notifier) changed() {
	if n.onChange != nil {
		n.onChange()
	}
}
