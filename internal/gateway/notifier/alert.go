package notifier

import (
	"sync"
	"time"

	"vaxmap/internal/dashboard"
	"vaxmap/internal/logger"
)

const alertQueueSize = 16

// LoadAlert sends a message when a dataset load fails, and one more when a
// later load recovers. Messages are delivered in order by a background
// worker so a slow notifier never holds up a load.
type LoadAlert struct {
	n   TextNotifier
	now func() time.Time

	mu     sync.Mutex
	failed bool

	startOnce sync.Once
	queue     chan string
	pending   sync.WaitGroup
}

func NewLoadAlert(n TextNotifier) *LoadAlert {
	return &LoadAlert{n: n, now: time.Now, queue: make(chan string, alertQueueSize)}
}

func (a *LoadAlert) LoadFailed(source string, err error, took time.Duration) {
	if a == nil || a.n == nil {
		return
	}
	a.mu.Lock()
	a.failed = true
	a.mu.Unlock()
	msg := StructuredMessage{
		Icon:  "⚠️",
		Title: "COVID data load failed",
		Sections: []MessageSection{{
			Title: "Details",
			Lines: []string{"source: " + source, "error: " + err.Error(), "took: " + took.Round(time.Millisecond).String()},
		}},
		Timestamp: a.now(),
	}
	a.send(msg)
}

func (a *LoadAlert) LoadSucceeded(ds *dashboard.Dataset, took time.Duration) {
	if a == nil || a.n == nil {
		return
	}
	a.mu.Lock()
	wasFailed := a.failed
	a.failed = false
	a.mu.Unlock()
	if !wasFailed {
		return
	}
	msg := StructuredMessage{
		Icon:  "✅",
		Title: "COVID data load recovered",
		Sections: []MessageSection{{
			Lines: []string{"source: " + ds.Source},
		}},
		Timestamp: a.now(),
	}
	a.send(msg)
}

func (a *LoadAlert) send(msg StructuredMessage) {
	a.startOnce.Do(func() { go a.run() })
	a.pending.Add(1)
	select {
	case a.queue <- msg.RenderMarkdown():
	default:
		a.pending.Done()
		logger.Warnf("load alert dropped, queue full")
	}
}

func (a *LoadAlert) run() {
	for text := range a.queue {
		if err := a.n.SendText(text); err != nil {
			logger.Warnf("load alert not delivered: %v", err)
		}
		a.pending.Done()
	}
}

// Wait blocks until every queued alert has been handed to the notifier.
func (a *LoadAlert) Wait() {
	if a == nil {
		return
	}
	a.pending.Wait()
}
