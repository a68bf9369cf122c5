package updater

import (
	"errors"
	"fmt"
)

// Phase is a step of a single update run.
type Phase int

const (
	Querying Phase = iota
	Downloading
	Extracting
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Querying:
		return "querying"
	case Downloading:
		return "downloading"
	case Extracting:
		return "extracting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether no further transitions follow p in this run.
func (p Phase) Terminal() bool {
	return p == Done || p == Failed
}

// Progress is emitted repeatedly during a run. BytesTotal is 0 when the
// download size is unknown.
type Progress struct {
	Phase           Phase
	BytesDownloaded int64
	BytesTotal      int64
}

// Fraction returns the completed share of the download. ok is false while
// the total is unknown; Done is always complete.
func (p Progress) Fraction() (f float64, ok bool) {
	if p.Phase == Done {
		return 1, true
	}
	if p.BytesTotal <= 0 {
		return 0, false
	}
	f = float64(p.BytesDownloaded) / float64(p.BytesTotal)
	if f > 1 {
		f = 1
	}
	return f, true
}

// Percent is Fraction as a whole percentage, or -1 when unknown.
func (p Progress) Percent() int {
	f, ok := p.Fraction()
	if !ok {
		return -1
	}
	return int(f * 100)
}

// Kind classifies why a run failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindNetwork
	KindArchive
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindNetwork:
		return "network"
	case KindArchive:
		return "archive"
	}
	return "unknown"
}

// ErrUpdateInProgress is returned when a run is requested while another one
// has not finished.
var ErrUpdateInProgress = errors.New("an update is already in progress")

// Failure is the error returned by a failed run.
type Failure struct {
	Phase Phase
	Kind  Kind
	Err   error
}

func (f *Failure) Error() string {
	return f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Classify returns the Kind of err, or KindUnknown when err did not come
// from a run.
func Classify(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// Options configures the pipeline.
type Options struct {
	Repo        string
	AssetMarker string
	InstallDir  string
}

// Result summarizes a successful run.
type Result struct {
	Tag   string
	Asset string
	Bytes int64
	Files int
}
