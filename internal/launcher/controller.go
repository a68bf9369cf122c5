package launcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/miyamgo/tmod-launcher/internal/config"
	"github.com/miyamgo/tmod-launcher/internal/locator"
	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/miyamgo/tmod-launcher/internal/process"
	"github.com/miyamgo/tmod-launcher/internal/updater"
	"github.com/spf13/afero"
)

// ErrClosed is returned by StartUpdate after Close.
var ErrClosed = errors.New("controller closed")

// Updater runs one update of the mod-loader installation.
type Updater interface {
	Run(ctx context.Context, onProgress func(updater.Progress)) (*updater.Result, error)
}

// Dispatcher starts a resolved target.
type Dispatcher interface {
	Launch(ctx context.Context, path, displayName string) process.LaunchResult
}

// Controller ties locating, launching and updating together. Everything the
// UI should show about a background update arrives on Events; the
// controller never calls into the UI.
type Controller struct {
	cfg        *config.Config
	fs         afero.Fs
	dispatcher Dispatcher
	updater    Updater

	events chan Event
	busy   atomic.Bool
	closed atomic.Bool
	wg     sync.WaitGroup

	mu          sync.Mutex
	resolutions []locator.Resolution
}

// New creates a Controller. buffer sizes the event channel.
func New(cfg *config.Config, fs afero.Fs, dispatcher Dispatcher, up Updater, buffer int) *Controller {
	if buffer < 1 {
		buffer = 64
	}
	return &Controller{
		cfg:        cfg,
		fs:         fs,
		dispatcher: dispatcher,
		updater:    up,
		events:     make(chan Event, buffer),
	}
}

// Events delivers update status, progress, availability and prompts. It is
// closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Scan re-locates every target and remembers the result for Launch.
func (c *Controller) Scan() []locator.Resolution {
	res := locator.ScanAll(c.fs, c.cfg.Targets())
	c.mu.Lock()
	c.resolutions = res
	c.mu.Unlock()
	for _, r := range res {
		logging.Debugf("Verbose: scan target=%s root=%q found=%q\n", r.Target.Name, r.Target.RootDir, r.Path)
	}
	return res
}

// Resolution returns the last scan result for the named target.
func (c *Controller) Resolution(name string) (locator.Resolution, bool) {
	t, ok := c.cfg.Target(name)
	if !ok {
		return locator.Resolution{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.resolutions {
		if r.Target.Name == t.Name {
			return r, true
		}
	}
	return locator.Resolution{Target: t}, true
}

// Launch starts the named target using the last scan result. It runs on
// the caller's goroutine and returns once the process is spawned.
func (c *Controller) Launch(ctx context.Context, name string) (process.LaunchResult, error) {
	r, ok := c.Resolution(name)
	if !ok {
		return process.LaunchResult{}, fmt.Errorf("unknown target %q", name)
	}
	res := c.dispatcher.Launch(ctx, r.Path, r.Target.Name)
	logging.Debugf("Verbose: launch target=%s outcome=%s pid=%d\n", r.Target.Name, res.Outcome, res.PID)
	return res, nil
}

// UpdateRunning reports whether a background update is in flight.
func (c *Controller) UpdateRunning() bool {
	return c.busy.Load()
}

// StartUpdate runs the update pipeline on a new goroutine and returns at
// once. It refuses to start while another update is running.
func (c *Controller) StartUpdate(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.busy.CompareAndSwap(false, true) {
		return updater.ErrUpdateInProgress
	}
	c.wg.Add(1)
	go c.runUpdate(ctx)
	return nil
}

func (c *Controller) runUpdate(ctx context.Context) {
	defer c.wg.Done()
	defer c.busy.Store(false)

	c.emit(Event{Kind: EventUpdateBusy, Busy: true})

	phase := updater.Phase(-1)
	res, err := c.updater.Run(ctx, func(p updater.Progress) {
		if p.Phase != phase {
			phase = p.Phase
			c.emit(Event{Kind: EventStatus, Text: statusText(p.Phase), Progress: p})
		}
		c.emit(Event{Kind: EventProgress, Progress: p})
	})

	if err != nil {
		if phase != updater.Failed {
			c.emit(Event{Kind: EventStatus, Text: statusText(updater.Failed), Progress: updater.Progress{Phase: updater.Failed}})
		}
		c.emit(Event{Kind: EventError, Title: "Error", Text: err.Error(), Err: err})
	} else {
		logging.Debugf("Verbose: update installed tag=%s files=%d bytes=%d\n", res.Tag, res.Files, res.Bytes)
		c.emit(Event{Kind: EventNotice, Title: "Success", Text: "Update completed!"})
	}

	c.emit(Event{Kind: EventAvailability, Resolutions: c.Scan()})
	c.emit(Event{Kind: EventUpdateBusy, Busy: false})
}

func (c *Controller) emit(e Event) {
	c.events <- e
}

// Wait blocks until a running background update has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close waits for a running update and closes Events. The event channel
// must keep being drained until it is closed.
func (c *Controller) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.wg.Wait()
	close(c.events)
}

func statusText(p updater.Phase) string {
	switch p {
	case updater.Querying:
		return "Fetching release info..."
	case updater.Downloading:
		return "Downloading..."
	case updater.Extracting:
		return "Extracting files..."
	case updater.Done:
		return "Update success!"
	case updater.Failed:
		return "Error"
	}
	return p.String()
}
