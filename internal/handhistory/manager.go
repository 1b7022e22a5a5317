package handhistory

import (
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

// ManagerConfig controls periodic flushing.
type ManagerConfig struct {
	Store         Store
	FlushInterval time.Duration
	// MaxFailures is the number of consecutive failed commits after which a
	// recorder is disabled and its buffered rows dropped.
	MaxFailures int
	Clock       quartz.Clock
}

// Manager owns the recorders of every open table and commits them on a
// timer, in addition to the commit the controller makes after each step.
type Manager struct {
	cfg    ManagerConfig
	logger zerolog.Logger
	ticker *quartz.Ticker

	mu        sync.RWMutex
	recorders map[string]*Recorder
	failures  map[string]int
	flushReq  chan struct{}
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewManager creates and starts a hand history manager.
func NewManager(logger zerolog.Logger, cfg ManagerConfig) *Manager {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 10 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}

	m := &Manager{
		cfg:       cfg,
		logger:    logger.With().Str("component", "handhistory").Logger(),
		ticker:    cfg.Clock.NewTicker(cfg.FlushInterval, "handhistory", "flush"),
		recorders: make(map[string]*Recorder),
		failures:  make(map[string]int),
		flushReq:  make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// Store returns the store recorders write to.
func (m *Manager) Store() Store { return m.cfg.Store }

// Shutdown stops the ticker and commits all recorders.
func (m *Manager) Shutdown() {
	close(m.stop)
	m.wg.Wait()
	m.FlushAll()
	m.mu.Lock()
	m.recorders = make(map[string]*Recorder)
	m.failures = make(map[string]int)
	m.mu.Unlock()
}

// CreateRecorder instantiates and registers a recorder for tableID.
func (m *Manager) CreateRecorder(tableID string, opts ...RecorderOption) (*Recorder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.recorders[tableID]; exists {
		return nil, fmt.Errorf("handhistory: recorder for %s already exists", tableID)
	}
	opts = append([]RecorderOption{WithClock(m.cfg.Clock), WithLogger(m.logger)}, opts...)
	r := NewRecorder(tableID, m.cfg.Store, opts...)
	m.recorders[tableID] = r
	return r, nil
}

// Recorder returns the registered recorder for tableID.
func (m *Manager) Recorder(tableID string) (*Recorder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recorders[tableID]
	return r, ok
}

// RemoveRecorder commits and unregisters the recorder for tableID.
func (m *Manager) RemoveRecorder(tableID string) {
	m.mu.Lock()
	r, ok := m.recorders[tableID]
	delete(m.recorders, tableID)
	delete(m.failures, tableID)
	m.mu.Unlock()

	if ok {
		if err := r.Commit(); err != nil {
			m.logger.Error().Err(err).Str("table_id", tableID).Msg("Hand history commit on remove failed")
		}
	}
}

// RequestFlush asks the background loop to commit soon.
func (m *Manager) RequestFlush() {
	select {
	case m.flushReq <- struct{}{}:
	default:
	}
}

func (m *Manager) run() {
	defer m.wg.Done()
	defer m.ticker.Stop()

	for {
		select {
		case <-m.ticker.C:
			m.FlushAll()
		case <-m.flushReq:
			m.FlushAll()
		case <-m.stop:
			return
		}
	}
}

// FlushAll commits every recorder once. A recorder that keeps failing is
// disabled.
func (m *Manager) FlushAll() {
	m.mu.RLock()
	snapshot := make(map[string]*Recorder, len(m.recorders))
	for k, v := range m.recorders {
		snapshot[k] = v
	}
	m.mu.RUnlock()

	for tableID, r := range snapshot {
		err := r.Commit()
		if err == nil {
			m.mu.Lock()
			delete(m.failures, tableID)
			m.mu.Unlock()
			continue
		}
		m.logger.Error().Err(err).Str("table_id", tableID).Msg("Hand history commit failed")

		m.mu.Lock()
		m.failures[tableID]++
		disabled := m.failures[tableID] >= m.cfg.MaxFailures
		if disabled {
			delete(m.recorders, tableID)
			delete(m.failures, tableID)
		}
		m.mu.Unlock()

		if disabled {
			m.logger.Error().Str("table_id", tableID).Int("dropped_rows", r.Disable()).
				Msg("Hand history recording disabled after repeated failures")
		}
	}
}
