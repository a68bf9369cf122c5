package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/miyamgo/tmod-launcher/internal/launcher"
	"github.com/miyamgo/tmod-launcher/internal/locator"
	"github.com/miyamgo/tmod-launcher/internal/process"
	"github.com/miyamgo/tmod-launcher/internal/updater"
	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Options configures a Console.
type Options struct {
	// Terminal enables colors and the animated progress bar. Without it
	// download progress is printed as one line per ten percent.
	Terminal bool
	// WaitOnPrompt makes notices and errors block until a line is read.
	WaitOnPrompt bool
}

// Console renders controller events as text and reads user input lines.
// It must only be used from one goroutine.
type Console struct {
	out   io.Writer
	opts  Options
	color colorstring.Colorize

	lines     chan string
	done      chan struct{}
	closeOnce sync.Once

	bar     *progressbar.ProgressBar
	nextPct int
	lastPct int
}

// NewConsole creates a Console writing to out. Lines from in are delivered
// on Lines; in may be nil when no input is expected.
func NewConsole(out io.Writer, in io.Reader, opts Options) *Console {
	c := &Console{
		out:  out,
		opts: opts,
		color: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !opts.Terminal,
			Reset:   true,
		},
		done:    make(chan struct{}),
		lastPct: -1,
	}
	if in != nil {
		c.lines = make(chan string)
		go c.readLines(in)
	}
	return c
}

func (c *Console) readLines(in io.Reader) {
	defer close(c.lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case c.lines <- strings.TrimSpace(sc.Text()):
		case <-c.done:
			return
		}
	}
}

// Lines delivers trimmed input lines and is closed at end of input.
func (c *Console) Lines() <-chan string {
	return c.lines
}

// Close stops delivering input lines.
func (c *Console) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Render draws one controller event.
func (c *Console) Render(ev launcher.Event) {
	switch ev.Kind {
	case launcher.EventStatus:
		switch ev.Progress.Phase {
		case updater.Downloading:
			c.lastPct = -1
		case updater.Done:
			c.endBar(true)
			if !c.opts.Terminal && c.lastPct != 100 {
				fmt.Fprintln(c.out, "Downloading... 100%")
				c.lastPct = 100
			}
		default:
			c.endBar(ev.Progress.Phase != updater.Failed)
		}
		c.Status(ev.Progress.Phase, ev.Text)
	case launcher.EventProgress:
		c.progress(ev.Progress)
	case launcher.EventAvailability:
		c.Availability(ev.Resolutions)
	case launcher.EventUpdateBusy:
		if !ev.Busy {
			c.endBar(false)
		}
	case launcher.EventNotice:
		c.Prompt(ev.Title, ev.Text, false)
	case launcher.EventError:
		c.Prompt(ev.Title, ev.Text, true)
	}
}

// Status prints a status line colored by phase.
func (c *Console) Status(phase updater.Phase, text string) {
	fmt.Fprintln(c.out, c.color.Color("Status: "+phaseColor(phase))+text)
}

func phaseColor(p updater.Phase) string {
	switch p {
	case updater.Downloading, updater.Extracting:
		return "[yellow]"
	case updater.Done:
		return "[green]"
	case updater.Failed:
		return "[red]"
	}
	return "[white]"
}

func (c *Console) progress(p updater.Progress) {
	if p.Phase != updater.Downloading {
		return
	}
	if !c.opts.Terminal {
		pct := p.Percent()
		if pct < 0 || pct < c.nextPct {
			return
		}
		fmt.Fprintf(c.out, "Downloading... %d%%\n", pct)
		c.nextPct = pct/10*10 + 10
		c.lastPct = pct
		return
	}
	if c.bar == nil {
		total := p.BytesTotal
		if total <= 0 {
			total = -1
		}
		c.bar = newBar(c.out, total)
	}
	_ = c.bar.Set64(p.BytesDownloaded)
}

func newBar(w io.Writer, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

// endBar finishes the download bar, filled when complete is set and
// cleared otherwise.
func (c *Console) endBar(complete bool) {
	c.nextPct = 0
	if c.bar == nil {
		return
	}
	if complete {
		_ = c.bar.Finish()
	} else {
		_ = c.bar.Clear()
	}
	c.bar = nil
}

// Availability prints which targets can be launched. The first resolution
// drives the overall status line.
func (c *Console) Availability(res []locator.Resolution) {
	if len(res) == 0 {
		return
	}
	if res[0].Found() {
		fmt.Fprintln(c.out, c.color.Color("Status: [green]Ready to play"))
	} else {
		fmt.Fprintln(c.out, c.color.Color("Status: [yellow]"+res[0].Target.Name+" missing"))
	}
	for _, r := range res {
		if r.Found() {
			fmt.Fprintln(c.out, c.color.Color("  [green]"+r.Target.Name)+" "+r.Path)
			continue
		}
		fmt.Fprintln(c.out, c.color.Color("  [dark_gray]"+r.Target.Name)+" not found under "+r.Target.RootDir)
	}
}

// Menu prints the choices. Missing targets and a running update show up
// as unavailable entries.
func (c *Console) Menu(res []locator.Resolution, busy bool) {
	fmt.Fprintln(c.out)
	for i, r := range res {
		if r.Found() {
			fmt.Fprintf(c.out, "  %d) Play %s\n", i+1, r.Target.Name)
		} else {
			fmt.Fprintf(c.out, "  %d) %s\n", i+1, c.color.Color("[dark_gray]INSTALL "+strings.ToUpper(r.Target.Name)+" FIRST"))
		}
	}
	if busy {
		fmt.Fprintf(c.out, "  u) %s\n", c.color.Color("[dark_gray]Updating..."))
	} else {
		fmt.Fprintln(c.out, "  u) Check for updates")
	}
	fmt.Fprintln(c.out, "  r) Rescan")
	fmt.Fprintln(c.out, "  q) Quit")
	fmt.Fprint(c.out, "> ")
}

// Launched reports the outcome of a launch attempt.
func (c *Console) Launched(res process.LaunchResult) {
	switch res.Outcome {
	case process.OutcomeStarted:
		fmt.Fprintf(c.out, "%s %s (pid %d)\n", c.color.Color("[green]Started"), res.DisplayName, res.PID)
	case process.OutcomeAlreadyRunning:
		c.Prompt("Running", res.DisplayName+" is already active!", false)
	case process.OutcomeFailed:
		c.Prompt("Error", res.Err.Error(), true)
	case process.OutcomeSkipped:
		c.Println(res.DisplayName + " is not installed.")
	}
}

// Println prints a plain line.
func (c *Console) Println(text string) {
	fmt.Fprintln(c.out, text)
}

// Prompt prints a notice or error and, when configured to, waits for the
// user to acknowledge it with a line of input.
func (c *Console) Prompt(title, text string, isErr bool) {
	tag := "[cyan]"
	if isErr {
		tag = "[red]"
	}
	fmt.Fprintln(c.out, c.color.Color(tag+title+":")+" "+text)
	if !c.opts.WaitOnPrompt || c.lines == nil {
		return
	}
	fmt.Fprint(c.out, "Press Enter to continue...")
	<-c.lines
}
