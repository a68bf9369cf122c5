package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/miyamgo/tmod-launcher/internal/launcher"
	"github.com/miyamgo/tmod-launcher/internal/locator"
	"github.com/miyamgo/tmod-launcher/internal/process"
	"github.com/miyamgo/tmod-launcher/internal/updater"
)

// Controller is the part of launcher.Controller the menu drives.
type Controller interface {
	Events() <-chan launcher.Event
	Scan() []locator.Resolution
	Launch(ctx context.Context, name string) (process.LaunchResult, error)
	StartUpdate(ctx context.Context) error
	UpdateRunning() bool
	Close()
}

// Menu is the interactive loop. User input and controller events are both
// handled on the goroutine that calls Run, so nothing else draws.
type Menu struct {
	console *Console
	ctrl    Controller

	res  []locator.Resolution
	busy bool
}

// NewMenu creates a Menu.
func NewMenu(console *Console, ctrl Controller) *Menu {
	return &Menu{console: console, ctrl: ctrl}
}

// Run shows the menu until the user quits, input ends or ctx is done. A
// running update is waited for before Run returns.
func (m *Menu) Run(ctx context.Context) error {
	m.res = m.ctrl.Scan()
	m.console.Availability(m.res)
	m.console.Menu(m.res, m.busy)

	events := m.ctrl.Events()
	for {
		select {
		case <-ctx.Done():
			m.shutdown(events)
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.handleEvent(ev)
		case line, ok := <-m.console.Lines():
			if !ok || m.handleInput(ctx, line) {
				m.shutdown(events)
				return nil
			}
		}
	}
}

func (m *Menu) handleEvent(ev launcher.Event) {
	switch ev.Kind {
	case launcher.EventAvailability:
		m.res = ev.Resolutions
	case launcher.EventUpdateBusy:
		m.busy = ev.Busy
	}
	m.console.Render(ev)
	if ev.Kind == launcher.EventUpdateBusy && !ev.Busy {
		m.console.Menu(m.res, m.busy)
	}
}

// handleInput acts on one line and reports whether the user asked to quit.
func (m *Menu) handleInput(ctx context.Context, line string) bool {
	switch strings.ToLower(line) {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "u":
		m.update(ctx)
	case "r":
		m.res = m.ctrl.Scan()
		m.console.Availability(m.res)
	default:
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(m.res) {
			m.console.Println("Unknown choice " + strconv.Quote(line))
			break
		}
		m.launch(ctx, m.res[n-1])
	}
	m.console.Menu(m.res, m.busy)
	return false
}

func (m *Menu) launch(ctx context.Context, r locator.Resolution) {
	if !r.Found() {
		m.console.Println("Install " + r.Target.Name + " first.")
		return
	}
	res, err := m.ctrl.Launch(ctx, r.Target.Name)
	if err != nil {
		m.console.Prompt("Error", err.Error(), true)
		return
	}
	m.console.Launched(res)
}

func (m *Menu) update(ctx context.Context) {
	if m.busy {
		m.console.Println("An update is already in progress.")
		return
	}
	if err := m.ctrl.StartUpdate(ctx); err != nil {
		if errors.Is(err, updater.ErrUpdateInProgress) {
			m.console.Println("An update is already in progress.")
			return
		}
		m.console.Prompt("Error", err.Error(), true)
		return
	}
	m.busy = true
}

// shutdown closes the controller and renders whatever a running update
// still has to say.
func (m *Menu) shutdown(events <-chan launcher.Event) {
	defer m.console.Close()
	if events == nil {
		m.ctrl.Close()
		return
	}
	if m.ctrl.UpdateRunning() {
		m.console.Println("Waiting for the update to finish...")
	}
	go m.ctrl.Close()
	for ev := range events {
		m.console.Render(ev)
	}
}
