package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/miyamgo/tmod-launcher/internal/logging"
)

const (
	// DefaultChunkSize is how much is read between progress callbacks.
	DefaultChunkSize = 64 * 1024

	// ConnectTimeout bounds dialing, TLS and waiting for response headers.
	// The body transfer itself has no deadline.
	ConnectTimeout = 15 * time.Second

	maxPrealloc = 256 << 20
)

// Progress is reported after every chunk. Total is 0 when the server did
// not declare a content length.
type Progress struct {
	Downloaded int64
	Total      int64
}

// Fraction returns Downloaded/Total, or ok=false when Total is unknown.
func (p Progress) Fraction() (f float64, ok bool) {
	if p.Total <= 0 {
		return 0, false
	}
	f = float64(p.Downloaded) / float64(p.Total)
	if f > 1 {
		f = 1
	}
	return f, true
}

// NewHTTPClient returns a client whose timeouts cover connection setup only.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: ConnectTimeout, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   ConnectTimeout,
			ResponseHeaderTimeout: ConnectTimeout,
			ForceAttemptHTTP2:     true,
		},
	}
}

// Downloader streams a URL into memory.
type Downloader struct {
	client    *http.Client
	chunkSize int
}

// New creates a Downloader. A nil client selects NewHTTPClient and a
// chunkSize below 1 selects DefaultChunkSize.
func New(client *http.Client, chunkSize int) *Downloader {
	if client == nil {
		client = NewHTTPClient()
	}
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Downloader{client: client, chunkSize: chunkSize}
}

// Fetch downloads url fully into memory, calling onChunk after every chunk
// read. Chunks are exactly chunkSize bytes except possibly the last one.
func (d *Downloader) Fetch(ctx context.Context, url string, onChunk func(Progress)) ([]byte, error) {
	logging.Debugf("Verbose: download start url=%s chunk=%d\n", url, d.chunkSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading: HTTP %d", resp.StatusCode)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	var buf bytes.Buffer
	if total > 0 && total <= maxPrealloc {
		buf.Grow(int(total))
	}

	chunk := make([]byte, d.chunkSize)
	var done int64
	for {
		n, err := fillChunk(resp.Body, chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			done += int64(n)
			if onChunk != nil {
				onChunk(Progress{Downloaded: done, Total: total})
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
	}

	if total > 0 && done < total {
		return nil, fmt.Errorf("reading body: got %d of %d bytes", done, total)
	}

	logging.Debugf("Verbose: download complete url=%s bytes=%d\n", url, done)
	return buf.Bytes(), nil
}

// fillChunk reads until chunk is full or the body ends. It returns io.EOF
// only for a clean end of body; a connection dropped mid-transfer surfaces
// as the transport's own error, io.ErrUnexpectedEOF included.
func fillChunk(r io.Reader, chunk []byte) (int, error) {
	n := 0
	for n < len(chunk) {
		m, err := r.Read(chunk[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
