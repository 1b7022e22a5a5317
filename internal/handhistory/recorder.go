package handhistory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/pokerengine/internal/game"
)

// ViewerAll sees every card in the log.
const ViewerAll = "all"

// Release is stamped into exported files.
var Release = "dev"

// Recorder is the hand logger of one table. Entries are buffered until
// Commit hands them to the Store.
type Recorder struct {
	tableID string
	store   Store
	clock   quartz.Clock
	logger  zerolog.Logger
	timeout time.Duration

	commitMu sync.Mutex

	mu       sync.Mutex
	hand     int64
	lastSeq  int64
	pending  []Row
	disabled bool
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock sets the clock used for notes and file access times.
func WithClock(c quartz.Clock) RecorderOption {
	return func(r *Recorder) { r.clock = c }
}

// WithLogger sets the recorder's logger.
func WithLogger(l zerolog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// WithNextHand sets the hand number that rows logged before the first
// snapshot belong to. It defaults to 1.
func WithNextHand(n int64) RecorderOption {
	return func(r *Recorder) { r.hand = n }
}

// WithCommitTimeout bounds each Store call made by Commit.
func WithCommitTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.timeout = d }
}

// NewRecorder returns a Recorder for tableID backed by store.
func NewRecorder(tableID string, store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		tableID: tableID,
		store:   store,
		clock:   quartz.NewReal(),
		logger:  zerolog.Nop(),
		timeout: 10 * time.Second,
		hand:    1,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("component", "handhistory").Str("table_id", tableID).Logger()
	return r
}

var _ game.HandLogger = (*Recorder)(nil)

// TableID returns the table the recorder belongs to.
func (r *Recorder) TableID() string { return r.tableID }

func (r *Recorder) WriteSnapshot(s game.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disabled {
		return nil
	}
	r.hand = s.Table.HandNumber + 1
	row, err := snapshotRow(r.tableID, r.hand, r.clock.Now(), s)
	if err != nil {
		return err
	}
	r.pending = append(r.pending, row)
	return nil
}

func (r *Recorder) WriteAction(seq int64, a game.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disabled {
		return nil
	}
	row, err := actionRow(r.tableID, r.hand, seq, a)
	if err != nil {
		return err
	}
	r.pending = append(r.pending, row)
	return nil
}

func (r *Recorder) WriteEvent(e game.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disabled {
		return nil
	}
	if e.Seq <= r.lastSeq {
		return fmt.Errorf("handhistory: event %d out of order after %d", e.Seq, r.lastSeq)
	}
	if args, ok := e.Args.(game.NewHandArgs); ok {
		r.hand = args.HandNumber
	}
	row, err := eventRow(r.tableID, r.hand, e)
	if err != nil {
		return err
	}
	r.pending = append(r.pending, row)
	r.lastSeq = e.Seq
	if args, ok := e.Args.(game.EndHandArgs); ok {
		r.hand = args.HandNumber + 1
	}
	return nil
}

// AddNote attaches free text to the current hand.
func (r *Recorder) AddNote(text string) error {
	b, err := json.Marshal(text)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disabled {
		return nil
	}
	r.pending = append(r.pending, Row{
		TableID: r.tableID,
		Seq:     r.lastSeq,
		Kind:    KindNote,
		Hand:    r.hand,
		TS:      r.clock.Now(),
		Payload: b,
	})
	return nil
}

// Pending returns the number of rows not yet in the store.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Disable stops recording and drops the buffered rows, returning how many
// were dropped.
func (r *Recorder) Disable() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.pending)
	r.pending = nil
	r.disabled = true
	return n
}

// Commit flushes buffered rows. Calling it with nothing buffered does
// nothing; on failure the rows stay buffered for the next attempt.
func (r *Recorder) Commit() error {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	r.mu.Lock()
	rows := slices.Clone(r.pending)
	r.mu.Unlock()
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.Append(ctx, r.tableID, rows); err != nil {
		return fmt.Errorf("handhistory: commit %d rows: %w", len(rows), err)
	}

	r.mu.Lock()
	r.pending = slices.Delete(r.pending, 0, len(rows))
	r.mu.Unlock()
	r.logger.Debug().Int("rows", len(rows)).Msg("Committed hand history")
	return nil
}

// Filter selects and redacts a log view. Zero values select everything;
// an empty Viewer is treated as an anonymous observer.
type Filter struct {
	Viewer    string
	NotesOnly bool
	FromHand  int64
	ToHand    int64
	Since     time.Time
	Until     time.Time
}

func (f Filter) match(h *HandRecord) bool {
	switch {
	case f.FromHand > 0 && h.Number < f.FromHand:
		return false
	case f.ToHand > 0 && h.Number > f.ToHand:
		return false
	case !f.Since.IsZero() && h.TS.Before(f.Since):
		return false
	case !f.Until.IsZero() && h.TS.After(f.Until):
		return false
	case f.NotesOnly && len(h.Notes) == 0:
		return false
	}
	return true
}

// Rows returns durable rows merged with the buffered ones, in log order.
func (r *Recorder) Rows(ctx context.Context) ([]Row, error) {
	r.mu.Lock()
	pending := slices.Clone(r.pending)
	r.mu.Unlock()

	durable, err := r.store.Load(ctx, r.tableID)
	if err != nil {
		return nil, fmt.Errorf("handhistory: load %s: %w", r.tableID, err)
	}
	return Merge(durable, pending), nil
}

// GetLog returns the hands that match f, redacted for f.Viewer.
func (r *Recorder) GetLog(ctx context.Context, f Filter) (*File, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, err
	}
	hands, err := BuildHands(rows)
	if err != nil {
		return nil, err
	}
	return View(hands, f, r.clock.Now()), nil
}

// View builds a file from hands, keeping those that match f.
func View(hands []HandRecord, f Filter, now time.Time) *File {
	out := &File{Release: Release, Accessed: now, Hands: []HandRecord{}}
	for i := range hands {
		h := hands[i]
		if !f.match(&h) {
			continue
		}
		if f.Viewer != ViewerAll {
			h = Redact(h, f.Viewer)
		}
		out.Hands = append(out.Hands, h)
	}
	return out
}

// Merge combines durable and buffered rows, dropping duplicates, and orders
// them by sequence number.
func Merge(durable, pending []Row) []Row {
	seen := make(map[rowKey]struct{}, len(durable)+len(pending))
	out := make([]Row, 0, len(durable)+len(pending))
	for _, set := range [][]Row{durable, pending} {
		for _, row := range set {
			k := row.key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, row)
		}
	}
	slices.SortStableFunc(out, func(a, b Row) int {
		if a.Seq != b.Seq {
			if a.Seq < b.Seq {
				return -1
			}
			return 1
		}
		return a.Kind.order() - b.Kind.order()
	})
	return out
}
