// Package fetch serializes log-range loads for one consumer. Each new
// request supersedes the one in flight, so whatever lands in Results
// always corresponds to the most recent range asked for.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// Result is the outcome of one range load. Seq increases with each
// request; a consumer can discard anything older than the last Seq it
// has seen.
type Result struct {
	Seq     uint64
	Start   time.Time
	End     time.Time
	Entries []store.PainLogEntry
	Err     error
}

// Fetcher loads [start, end) ranges for a single user. Requests and
// refreshes cancel the previous in-flight load; stale loads never
// deliver. Safe for concurrent use.
type Fetcher struct {
	logs     store.LogStore
	userID   string
	debounce time.Duration

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	start    time.Time
	end      time.Time
	hasRange bool
	closed   bool

	results     chan Result
	done        chan struct{}
	unsubscribe func()
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDebounce delays each load by d, absorbing bursts of rapid range
// changes into a single query. Zero disables the delay.
func WithDebounce(d time.Duration) Option {
	return func(f *Fetcher) { f.debounce = d }
}

// New builds a Fetcher for one user. When changes is non-nil the
// fetcher refreshes its current range whenever that user's logs mutate.
func New(logs store.LogStore, changes *store.Notifier, userID string, opts ...Option) *Fetcher {
	f := &Fetcher{
		logs:    logs,
		userID:  userID,
		results: make(chan Result, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if changes != nil {
		f.unsubscribe = changes.Subscribe(func(ev store.ChangeEvent) {
			if ev.UserID == userID {
				f.Refresh()
			}
		})
	}
	return f
}

// Results delivers at most the latest completed load. A newer result
// replaces an unconsumed older one.
func (f *Fetcher) Results() <-chan Result {
	return f.results
}

// Done is closed when the fetcher shuts down. Consumers ranging over
// Results should also select on Done.
func (f *Fetcher) Done() <-chan struct{} {
	return f.done
}

// SetRange requests [start, end). Any load still in flight is
// cancelled and will not deliver.
func (f *Fetcher) SetRange(start, end time.Time) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.start, f.end, f.hasRange = start, end, true
	f.mu.Unlock()
	f.Refresh()
}

// Refresh re-runs the current range, superseding any load in flight.
// It is a no-op before the first SetRange.
func (f *Fetcher) Refresh() {
	f.mu.Lock()
	if f.closed || !f.hasRange {
		f.mu.Unlock()
		return
	}
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.seq++
	seq := f.seq
	start, end := f.start, f.end
	f.mu.Unlock()

	go f.load(ctx, seq, start, end)
}

// Close cancels any in-flight load and detaches from change events.
// Closing twice is safe.
func (f *Fetcher) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.done)
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	unsub := f.unsubscribe
	f.unsubscribe = nil
	f.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (f *Fetcher) load(ctx context.Context, seq uint64, start, end time.Time) {
	if f.debounce > 0 {
		timer := time.NewTimer(f.debounce)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	entries, err := f.logs.FetchRange(ctx, f.userID, start, end)
	if ctx.Err() != nil {
		// Superseded mid-flight. The newer load owns the channel now.
		return
	}

	if !f.current(seq) {
		return
	}
	result := Result{Seq: seq, Start: start, End: end, Entries: entries, Err: err}
	for {
		select {
		case f.results <- result:
			return
		default:
		}
		// Displace a stale unconsumed result.
		select {
		case stale := <-f.results:
			if stale.Seq > result.Seq {
				// Lost the race to a newer load; put it back.
				select {
				case f.results <- stale:
				default:
				}
				return
			}
		default:
		}
	}
}

func (f *Fetcher) current(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed && seq == f.seq
}
