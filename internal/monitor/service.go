// Package monitor provides the long-running quota monitor service.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/theirongolddev/ghlc/internal/api"
	"github.com/theirongolddev/ghlc/internal/observability"
	"github.com/theirongolddev/ghlc/internal/ratelimit"
)

// Config controls the monitor runtime behavior.
type Config struct {
	Addr         string
	Interval     time.Duration
	EventsBuffer int
}

// Poller probes the backend quota. *console.Session satisfies it.
type Poller interface {
	RateLimit(ctx context.Context) (ratelimit.Snapshot, error)
	Store() *ratelimit.Store
	BaseURL() string
}

// Delta captures the change between consecutive snapshots.
type Delta struct {
	Remaining      int64 `json:"remaining"`
	Used           int64 `json:"used"`
	DailyRemaining int64 `json:"daily_remaining"`
}

func (d Delta) isZero() bool {
	return d.Remaining == 0 && d.Used == 0 && d.DailyRemaining == 0
}

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventQuotaDelta  = "quota_delta"
	EventLevelChange = "level_change"
)

// Event is emitted whenever the quota snapshot changes.
type Event struct {
	ID        string             `json:"id"`
	Seq       int64              `json:"seq"`
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Level     ratelimit.Level    `json:"level"`
	Previous  ratelimit.Level    `json:"previous_level"`
	Snapshot  ratelimit.Snapshot `json:"snapshot"`
	Delta     Delta              `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time          `json:"started_at"`
	LastPollAt      time.Time          `json:"last_poll_at"`
	PollIntervalSec int                `json:"poll_interval_sec"`
	PollCount       int64              `json:"poll_count"`
	BaseURL         string             `json:"base_url"`
	Level           ratelimit.Level    `json:"level"`
	Message         string             `json:"message"`
	Quota           ratelimit.Snapshot `json:"quota"`
	LastError       string             `json:"last_error,omitempty"`
	EventCount      int                `json:"event_count"`
	SubscriberCount int                `json:"subscriber_count"`
}

// Service polls the quota endpoint and serves the result over HTTP.
type Service struct {
	cfg     Config
	poller  Poller
	logger  *zap.Logger
	metrics *observability.Metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    ratelimit.Snapshot
	nextSeq     int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics publishes snapshots as gauges and serves /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New returns a monitor for poller.
func New(cfg Config, poller Poller, opts ...Option) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	s := &Service{
		cfg:       cfg,
		poller:    poller,
		logger:    zap.NewNop(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP routes.
func (s *Service) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/v1/stream", s.handleStream).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	updates, unsubscribe := s.poller.Store().Subscribe()
	defer unsubscribe()
	go s.consume(ctx, updates)

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("monitor http server: %w", err)
		}
	}
}

// consume turns store updates into events. Updates from any call made on
// the session count, not only the monitor's own polls. A delivery only
// signals a change; the store's current snapshot is what gets observed.
func (s *Service) consume(ctx context.Context, updates <-chan ratelimit.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			s.observe(s.poller.Store().Current())
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	_, err := s.poller.RateLimit(ctx)

	s.mu.Lock()
	s.lastPollAt = time.Now()
	s.pollCount++
	if err != nil {
		s.lastError = api.UserMessage(err)
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		s.logger.Warn("quota poll failed", zap.Error(err))
	}
}

func (s *Service) observe(snap ratelimit.Snapshot) {
	if s.metrics != nil {
		s.metrics.ObserveSnapshot(snap)
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot
	s.hasSnapshot = true
	s.snapshot = snap

	base := Event{
		Timestamp: snap.LastUpdated,
		Level:     snap.Level(),
		Previous:  prev.Level(),
		Snapshot:  snap,
	}
	switch {
	case !prevExists:
		ev, publish = base, true
		ev.Type = EventSnapshot
	case prev.Level() != snap.Level():
		ev, publish = base, true
		ev.Type = EventLevelChange
		ev.Delta = diffSnapshots(prev, snap)
	default:
		if delta := diffSnapshots(prev, snap); !delta.isZero() {
			ev, publish = base, true
			ev.Type = EventQuotaDelta
			ev.Delta = delta
		}
	}
	if publish {
		s.nextSeq++
		ev.Seq = s.nextSeq
		ev.ID = uuid.NewString()
	}
	s.mu.Unlock()

	if publish {
		if ev.Type == EventLevelChange {
			s.logger.Info("quota level changed",
				zap.Stringer("from", ev.Previous), zap.Stringer("to", ev.Level),
				zap.Int64("remaining", snap.Remaining), zap.Int64("limit", snap.Limit))
		}
		s.publishEvent(ev)
	}
}

func diffSnapshots(prev, curr ratelimit.Snapshot) Delta {
	return Delta{
		Remaining:      curr.Remaining - prev.Remaining,
		Used:           curr.Used - prev.Used,
		DailyRemaining: curr.DailyRemaining - prev.DailyRemaining,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		BaseURL:         s.poller.BaseURL(),
		Level:           s.snapshot.Level(),
		Message:         s.snapshot.Level().Message(s.snapshot),
		Quota:           s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	st := s.snapshotStatus()
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Level:     st.Level,
		Snapshot:  st.Quota,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
