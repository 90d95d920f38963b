package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/talkincode/toughmon/internal/domain"
	"go.uber.org/zap"
)

// SessionState is the externally visible state of an octet sampling session
type SessionState struct {
	ID           string    `json:"id"`
	Host         string    `json:"hostname"`
	IfIndex      int       `json:"if_index"`
	Seconds      int       `json:"seconds"`
	Running      bool      `json:"running"`
	StartedAt    time.Time `json:"started_at"`
	SamplesCount int       `json:"samples_count"`
	AvgInBps     *float64  `json:"avg_in_bps"`
	AvgOutBps    *float64  `json:"avg_out_bps"`
	PeakInBps    *float64  `json:"peak_in_bps,omitempty"`
	PeakOutBps   *float64  `json:"peak_out_bps,omitempty"`
	Partial      bool      `json:"partial,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type samplingSession struct {
	id        string
	key       LinkKey
	seconds   int
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	// guarded by Registry.mu
	finished bool
	result   *domain.OctetMonitorResult
	err      error
}

func (s *samplingSession) state() *SessionState {
	st := &SessionState{
		ID:        s.id,
		Host:      s.key.Host,
		IfIndex:   s.key.IfIndex,
		Seconds:   s.seconds,
		Running:   !s.finished,
		StartedAt: s.startedAt,
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	if r := s.result; r != nil {
		in, out := r.AvgInBps, r.AvgOutBps
		peakIn := maxOf(r.Samples, func(m domain.MonitorSample) float64 { return m.InBps })
		peakOut := maxOf(r.Samples, func(m domain.MonitorSample) float64 { return m.OutBps })
		st.SamplesCount = len(r.Samples)
		st.AvgInBps, st.AvgOutBps = &in, &out
		st.PeakInBps, st.PeakOutBps = &peakIn, &peakOut
		st.Partial = r.Partial
	}
	return st
}

// SessionManager runs sampling sessions in the background, one pool task per
// session, and keeps the latest session of every key until it is stopped.
type SessionManager struct {
	sampler    *Sampler
	registry   *Registry
	pool       *ants.Pool
	clock      clock.Clock
	maxSeconds int

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSessionManager(sampler *Sampler, registry *Registry, pool *ants.Pool, clk clock.Clock, maxSeconds int) *SessionManager {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		sampler:    sampler,
		registry:   registry,
		pool:       pool,
		clock:      clk,
		maxSeconds: maxSeconds,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches a session on the pool and returns immediately. A running
// session on the same key is cancelled and replaced.
func (m *SessionManager) Start(host string, ifIndex, seconds int) (*SessionState, error) {
	if m.maxSeconds > 0 && seconds > m.maxSeconds {
		return nil, &ValidationError{Field: "seconds", Message: fmt.Sprintf("must not exceed %d", m.maxSeconds)}
	}
	if seconds < 1 {
		seconds = 1
	}

	key := LinkKey{Host: host, IfIndex: ifIndex}
	ctx, cancel := context.WithCancel(m.ctx)
	s := &samplingSession{
		id:        uuid.NewString(),
		key:       key,
		seconds:   seconds,
		startedAt: m.clock.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	// Submit before publishing the session so a rejected start leaves the
	// previous session on the key untouched.
	err := m.pool.Submit(func() {
		res, err := m.sampler.Sample(ctx, host, ifIndex, seconds)
		if err != nil {
			zap.L().Warn("octet sampling session failed",
				zap.String("namespace", "monitor"),
				zap.String("session", s.id),
				zap.String("key", key.String()),
				zap.Error(err))
		} else {
			zap.L().Debug("octet sampling session finished",
				zap.String("namespace", "monitor"),
				zap.String("session", s.id),
				zap.String("key", key.String()),
				zap.Float64("avg_in_bps", res.AvgInBps),
				zap.Float64("avg_out_bps", res.AvgOutBps))
		}
		m.registry.completeSession(s, res, err)
	})
	if err != nil {
		cancel()
		close(s.done)
		if errors.Is(err, ants.ErrPoolOverload) {
			return nil, fmt.Errorf("start sampling session on %s: %w", key, ErrSessionLimit)
		}
		return nil, fmt.Errorf("submit sampling session: %w", err)
	}
	if prev := m.registry.putSession(s); prev != nil {
		prev.cancel()
	}
	return m.registry.sessionStateOf(s), nil
}

// Result returns the state and, once finished, the result of the session on a key
func (m *SessionManager) Result(host string, ifIndex int) (*SessionState, *domain.OctetMonitorResult, error) {
	key := LinkKey{Host: host, IfIndex: ifIndex}
	st, res, ok := m.registry.sessionView(key)
	if !ok {
		return nil, nil, &NotFoundError{Kind: "sampling session", Key: key.String()}
	}
	return st, res, nil
}

// Wait blocks until the session on a key finishes or ctx is done
func (m *SessionManager) Wait(ctx context.Context, host string, ifIndex int) error {
	key := LinkKey{Host: host, IfIndex: ifIndex}
	done, ok := m.registry.sessionDone(key)
	if !ok {
		return &NotFoundError{Kind: "sampling session", Key: key.String()}
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the session on a key, waits for its worker to return, and drops it.
// The returned state is the last one the session reached.
func (m *SessionManager) Stop(host string, ifIndex int) (*SessionState, error) {
	key := LinkKey{Host: host, IfIndex: ifIndex}
	s := m.registry.takeSession(key)
	if s == nil {
		return nil, &NotFoundError{Kind: "sampling session", Key: key.String()}
	}
	s.cancel()
	<-s.done
	return m.registry.sessionStateOf(s), nil
}

// Close cancels every in-flight session
func (m *SessionManager) Close() {
	m.cancel()
}
