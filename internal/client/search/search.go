// Package search implements search-as-you-type for the CLI: a debounce window
// in front of the file name lookup, and the listing route a picked result
// leads to.
package search

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/filetype"
)

// Lookup finds files whose name contains query, across all categories.
type Lookup func(ctx context.Context, query string) ([]*models.File, error)

// Result is what one debounce window produced. Cleared is set, and no lookup
// was made, when the settled query was empty.
type Result struct {
	Query   string
	Files   []*models.File
	Err     error
	Cleared bool
}

// Debouncer delays lookups until the query has been stable for the window.
// Every Type call supersedes the previous one and restarts the timer, so only
// the latest query is looked up; results of a superseded query are dropped.
type Debouncer struct {
	window  time.Duration
	lookup  Lookup
	deliver func(Result)

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	closed bool
}

// New returns a Debouncer. deliver runs on a timer goroutine while the
// debouncer is locked, so it must not call Type or Close.
func New(window time.Duration, lookup Lookup, deliver func(Result)) *Debouncer {
	return &Debouncer{window: window, lookup: lookup, deliver: deliver}
}

// Type records query as the latest input.
func (d *Debouncer) Type(ctx context.Context, query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() { d.fire(ctx, seq, query) })
}

// Close stops any pending lookup. Later Type calls are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed && seq == d.seq
}

func (d *Debouncer) fire(ctx context.Context, seq uint64, query string) {
	if !d.current(seq) {
		return
	}

	q := strings.TrimSpace(query)
	if q == "" {
		d.emit(seq, Result{Cleared: true})
		return
	}

	files, err := d.lookup(ctx, q)
	d.emit(seq, Result{Query: q, Files: files, Err: err})
}

func (d *Debouncer) emit(seq uint64, r Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || seq != d.seq {
		return
	}
	d.deliver(r)
}

// Route is the listing a picked result opens: the file's category route
// (audio and video share "media") with the query preserved.
func Route(f *models.File, query string) string {
	p := "/" + filetype.RouteFor(f.Type)
	if query != "" {
		p += "?" + url.Values{"query": {query}}.Encode()
	}
	return p
}

// StripQuery removes the query parameter from location, keeping the path and
// any other parameters.
func StripQuery(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	q := u.Query()
	q.Del("query")
	u.RawQuery = q.Encode()
	return u.String()
}
