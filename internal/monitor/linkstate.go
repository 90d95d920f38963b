package monitor

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/internal/snmp"
	"go.uber.org/zap"
)

// TopicLinkEvent is published with (LinkKey, domain.TrapEvent) for every synthetic event
const TopicLinkEvent = "monitor:link_event"

// EventPublisher receives synthetic link events; asaskevich/EventBus satisfies it
type EventPublisher interface {
	Publish(topic string, args ...interface{})
}

// LinkMonitor derives linkUp/linkDown events by comparing consecutive ifOperStatus
// polls. It is synthetic detection: nothing listens for SNMP notifications.
type LinkMonitor struct {
	transport snmp.Transport
	registry  *Registry
	clock     clock.Clock
	community string
	publisher EventPublisher
}

func NewLinkMonitor(transport snmp.Transport, registry *Registry, clk clock.Clock, community string, publisher EventPublisher) *LinkMonitor {
	if clk == nil {
		clk = clock.New()
	}
	return &LinkMonitor{
		transport: transport,
		registry:  registry,
		clock:     clk,
		community: community,
		publisher: publisher,
	}
}

// GetState polls the interface. A new key is seeded silently; an active key
// emits an event when the status crosses the up/not-up boundary; an inactive
// key only refreshes its last seen status.
func (m *LinkMonitor) GetState(ctx context.Context, host string, ifIndex int) (*domain.LinkStateEntry, error) {
	key := LinkKey{Host: host, IfIndex: ifIndex}
	e := m.registry.lockLink(key)

	admin, oper, err := m.readStatus(ctx, host, ifIndex)
	if err != nil {
		m.registry.forgetUnseeded(key, e)
		e.mu.Unlock()
		return nil, err
	}

	var emitted *domain.TrapEvent
	switch {
	case !e.seeded:
		e.seeded = true
		e.lastOperStatus = oper
	case e.active:
		emitted = m.evaluate(e, oper)
	default:
		e.lastOperStatus = oper
	}
	snap := e.snapshot(key, admin, oper)
	e.mu.Unlock()

	if emitted != nil {
		m.publish(key, *emitted)
	}
	return snap, nil
}

// StartCapture turns capture on and re-baselines against a fresh read so the next
// transition is measured from the current status, not from stale history.
func (m *LinkMonitor) StartCapture(ctx context.Context, host string, ifIndex int) (*domain.LinkStateEntry, error) {
	key := LinkKey{Host: host, IfIndex: ifIndex}
	e := m.registry.lockLink(key)
	defer e.mu.Unlock()

	admin, oper, err := m.readStatus(ctx, host, ifIndex)
	if err != nil {
		m.registry.forgetUnseeded(key, e)
		return nil, err
	}
	e.seeded = true
	e.active = true
	e.lastOperStatus = oper

	zap.L().Info("link capture started",
		zap.String("namespace", "monitor"),
		zap.String("host", host),
		zap.Int("if_index", ifIndex),
		zap.String("oper_status", domain.OperStatusText(oper)))
	return e.snapshot(key, admin, oper), nil
}

// StopCapture turns capture off, keeping status history and events. Stopping a
// key that was never started creates it inactive. Capture is off even when the
// status read fails; the read error is then returned without a snapshot.
func (m *LinkMonitor) StopCapture(ctx context.Context, host string, ifIndex int) (*domain.LinkStateEntry, error) {
	key := LinkKey{Host: host, IfIndex: ifIndex}
	e := m.registry.lockLink(key)
	defer e.mu.Unlock()

	e.active = false
	admin, oper, err := m.readStatus(ctx, host, ifIndex)
	if err != nil {
		m.registry.forgetUnseeded(key, e)
		zap.L().Warn("link capture stopped without status read",
			zap.String("namespace", "monitor"),
			zap.String("host", host),
			zap.Int("if_index", ifIndex),
			zap.Error(err))
		return nil, err
	}
	if !e.seeded {
		e.seeded = true
		e.lastOperStatus = oper
	}

	zap.L().Info("link capture stopped",
		zap.String("namespace", "monitor"),
		zap.String("host", host),
		zap.Int("if_index", ifIndex),
		zap.Int("events", len(e.events)))
	return e.snapshot(key, admin, oper), nil
}

// evaluate must be called with e.mu held
func (m *LinkMonitor) evaluate(e *linkEntry, oper int) *domain.TrapEvent {
	old := e.lastOperStatus
	e.lastOperStatus = oper

	wasUp := old == domain.OperStatusUp
	isUp := oper == domain.OperStatusUp
	if wasUp == isUp {
		return nil
	}

	now := m.clock.Now()
	ev := domain.TrapEvent{
		Timestamp: now,
		Kind:      domain.EventLinkDown,
		OldStatus: old,
		NewStatus: oper,
	}
	if isUp {
		ev.Kind = domain.EventLinkUp
	}
	e.lastChange = &now
	e.appendEvent(ev, m.registry.eventCapacity)
	return &ev
}

func (m *LinkMonitor) publish(key LinkKey, ev domain.TrapEvent) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(TopicLinkEvent, key, ev)
}

func (m *LinkMonitor) readStatus(ctx context.Context, host string, ifIndex int) (int, int, error) {
	admin, err := m.transport.GetInteger(ctx, host, snmp.IfAdminStatus(ifIndex), m.community)
	if err != nil {
		return 0, 0, err
	}
	oper, err := m.transport.GetInteger(ctx, host, snmp.IfOperStatus(ifIndex), m.community)
	if err != nil {
		return 0, 0, err
	}
	return int(admin), int(oper), nil
}
