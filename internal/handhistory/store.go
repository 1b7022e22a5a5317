package handhistory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tinylib/msgp/msgp"
)

const rowFileExt = ".rows"

// Store is the durable home of log rows. Append must be safe to retry: a
// row appended twice is tolerated and removed when the log is read back.
type Store interface {
	Append(ctx context.Context, tableID string, rows []Row) error
	Load(ctx context.Context, tableID string) ([]Row, error)
}

// MemoryStore keeps rows in memory.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string][]Row
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]Row)}
}

func (s *MemoryStore) Append(_ context.Context, tableID string, rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		r.Payload = slices.Clone(r.Payload)
		s.rows[tableID] = append(s.rows[tableID], r)
	}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, tableID string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows[tableID]), nil
}

// FileStore appends rows as msgpack frames to one file per table.
type FileStore struct {
	dir    string
	logger zerolog.Logger

	mu   sync.Mutex
	ends map[string]int64
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("handhistory: store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("handhistory: create dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger, ends: make(map[string]int64)}, nil
}

func (s *FileStore) path(tableID string) (string, error) {
	if tableID == "" || tableID == "." || tableID == ".." || strings.ContainsAny(tableID, `/\`) {
		return "", fmt.Errorf("handhistory: invalid table id %q", tableID)
	}
	return filepath.Join(s.dir, tableID+rowFileExt), nil
}

// Append writes rows after the last complete frame, cutting off a torn
// frame left by an earlier failed append.
func (s *FileStore) Append(ctx context.Context, tableID string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(tableID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("handhistory: open %s: %w", path, err)
	}
	defer f.Close()

	end, ok := s.ends[tableID]
	if !ok {
		_, end, err = readFrames(f)
		if err != nil {
			return fmt.Errorf("handhistory: read %s: %w", path, err)
		}
	}
	// Forget the offset until this append is known to be complete.
	delete(s.ends, tableID)
	if err := f.Truncate(end); err != nil {
		return fmt.Errorf("handhistory: truncate %s: %w", path, err)
	}
	if _, err := f.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("handhistory: seek %s: %w", path, err)
	}

	w := msgp.NewWriter(f)
	var buf []byte
	for i := range rows {
		buf, err = rows[i].MarshalMsg(buf[:0])
		if err != nil {
			return fmt.Errorf("handhistory: encode row %d: %w", rows[i].Seq, err)
		}
		if err := w.WriteBytes(buf); err != nil {
			return fmt.Errorf("handhistory: write %s: %w", path, err)
		}
		end += frameSize(len(buf))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("handhistory: write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("handhistory: sync %s: %w", path, err)
	}
	s.ends[tableID] = end
	return nil
}

// Load reads every complete frame. A torn frame at the end of the file, left
// by an interrupted append, is ignored.
func (s *FileStore) Load(ctx context.Context, tableID string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(tableID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("handhistory: open %s: %w", path, err)
	}
	defer f.Close()

	rows, end, err := readFrames(f)
	if err != nil {
		return nil, fmt.Errorf("handhistory: read %s: %w", path, err)
	}
	if info, err := f.Stat(); err == nil && info.Size() > end {
		s.logger.Warn().Str("table_id", tableID).Int64("torn_bytes", info.Size()-end).Msg("Ignoring truncated row at end of log")
	}
	return rows, nil
}

// readFrames decodes frames from the start of r and returns the offset just
// past the last complete one.
func readFrames(r io.Reader) ([]Row, int64, error) {
	var (
		rows []Row
		end  int64
	)
	mr := msgp.NewReader(r)
	for {
		frame, err := mr.ReadBytes(nil)
		switch msgp.Cause(err) {
		case nil:
		case io.EOF, io.ErrUnexpectedEOF:
			return rows, end, nil
		default:
			return nil, 0, err
		}

		var row Row
		if _, err := row.UnmarshalMsg(frame); err != nil {
			return nil, 0, fmt.Errorf("decode row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
		end += frameSize(len(frame))
	}
}

// frameSize is the encoded size of a msgpack bin value holding n bytes.
func frameSize(n int) int64 {
	switch {
	case n <= math.MaxUint8:
		return int64(2 + n)
	case n <= math.MaxUint16:
		return int64(3 + n)
	}
	return int64(5 + n)
}

// Tables lists the table ids with a log in the store.
func (s *FileStore) Tables() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("handhistory: list %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), rowFileExt) {
			ids = append(ids, strings.TrimSuffix(e.Name(), rowFileExt))
		}
	}
	return ids, nil
}
