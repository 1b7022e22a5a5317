package table

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/pokerengine/internal/fileutil"
	"github.com/lox/pokerengine/internal/game"
)

// Incident is the persisted form of a consistency violation.
type Incident struct {
	TableID  string        `json:"table_id"`
	Check    string        `json:"check"`
	Detail   string        `json:"detail"`
	Reported time.Time     `json:"reported"`
	Snapshot game.Snapshot `json:"snapshot"`
	Recent   []game.Event  `json:"recent_events"`
}

// IncidentLog reports consistency violations to the log and, when a
// directory is set, writes each one to its own JSON file.
type IncidentLog struct {
	logger zerolog.Logger
	dir    string
	now    func() time.Time

	mu        sync.Mutex
	incidents []Incident
}

// NewIncidentLog returns a reporter. An empty dir only logs.
func NewIncidentLog(logger zerolog.Logger, dir string, now func() time.Time) *IncidentLog {
	if now == nil {
		now = time.Now
	}
	return &IncidentLog{
		logger: logger.With().Str("component", "incidents").Logger(),
		dir:    dir,
		now:    now,
	}
}

// Report implements game.IncidentReporter.
func (l *IncidentLog) Report(_ context.Context, err *game.ConsistencyViolationError) {
	inc := Incident{
		TableID:  err.TableID,
		Check:    err.Check,
		Detail:   err.Detail,
		Reported: l.now().UTC(),
		Snapshot: err.Snapshot,
		Recent:   err.Recent,
	}
	l.mu.Lock()
	l.incidents = append(l.incidents, inc)
	l.mu.Unlock()

	ev := l.logger.Error().
		Str("table_id", inc.TableID).
		Str("check", inc.Check).
		Str("detail", inc.Detail).
		Int("recent_events", len(inc.Recent))
	if l.dir == "" {
		ev.Msg("Consistency violation")
		return
	}
	path, werr := l.write(inc)
	if werr != nil {
		ev.AnErr("write_error", werr).Msg("Consistency violation")
		return
	}
	ev.Str("path", path).Msg("Consistency violation")
}

// Incidents returns everything reported so far.
func (l *IncidentLog) Incidents() []Incident {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Incident(nil), l.incidents...)
}

func (l *IncidentLog) write(inc Incident) (string, error) {
	data, err := json.MarshalIndent(inc, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("incident-%s-%d.json", inc.TableID, inc.Snapshot.Table.Seq)
	path := filepath.Join(l.dir, name)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
