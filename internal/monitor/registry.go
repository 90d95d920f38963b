package monitor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/talkincode/toughmon/internal/domain"
)

const DefaultEventCapacity = 100

// LinkKey addresses one interface of one device
type LinkKey struct {
	Host    string
	IfIndex int
}

func (k LinkKey) String() string {
	return fmt.Sprintf("%s:%d", k.Host, k.IfIndex)
}

// linkEntry holds the capture state of one interface. mu is held for the whole
// read-compare-update of an operation so a key only ever has one writer.
type linkEntry struct {
	mu             sync.Mutex
	seeded         bool
	active         bool
	removed        bool // dropped from the registry while unseeded
	lastOperStatus int
	lastChange     *time.Time
	events         []domain.TrapEvent
}

func (e *linkEntry) appendEvent(ev domain.TrapEvent, capacity int) {
	e.events = append(e.events, ev)
	if over := len(e.events) - capacity; over > 0 {
		e.events = append(e.events[:0:0], e.events[over:]...)
	}
}

func (e *linkEntry) snapshot(key LinkKey, admin, oper int) *domain.LinkStateEntry {
	s := &domain.LinkStateEntry{
		Host:            key.Host,
		IfIndex:         key.IfIndex,
		AdminStatus:     admin,
		OperStatus:      oper,
		AdminStatusText: domain.AdminStatusText(admin),
		OperStatusText:  domain.OperStatusText(oper),
		Active:          e.active,
		LastOperStatus:  e.lastOperStatus,
		Events:          append([]domain.TrapEvent{}, e.events...),
	}
	if e.lastChange != nil {
		t := *e.lastChange
		s.LastChange = &t
	}
	return s
}

// RegistryOptions bounds what the registry retains
type RegistryOptions struct {
	EventCapacity    int
	LivenessMaxHosts int           // 0 keeps every host
	LivenessTTL      time.Duration // 0 never expires
}

// Registry is the process-wide store behind the sampler sessions, the liveness
// tracker and the link state monitor.
type Registry struct {
	mu            sync.Mutex
	links         map[LinkKey]*linkEntry
	sessions      map[LinkKey]*samplingSession
	eventCapacity int

	okMu   sync.Mutex
	lastOK *expirable.LRU[string, time.Time]
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.EventCapacity <= 0 {
		opts.EventCapacity = DefaultEventCapacity
	}
	return &Registry{
		links:         make(map[LinkKey]*linkEntry),
		sessions:      make(map[LinkKey]*samplingSession),
		eventCapacity: opts.EventCapacity,
		lastOK:        expirable.NewLRU[string, time.Time](opts.LivenessMaxHosts, nil, opts.LivenessTTL),
	}
}

// lockLink returns the entry for key with its mutex held, creating an unseeded
// one if needed.
func (r *Registry) lockLink(key LinkKey) *linkEntry {
	for {
		r.mu.Lock()
		e, ok := r.links[key]
		if !ok {
			e = &linkEntry{}
			r.links[key] = e
		}
		r.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

// forgetUnseeded drops e when no read ever succeeded on it, so failed polls of
// unknown interfaces leave nothing behind. e.mu must be held.
func (r *Registry) forgetUnseeded(key LinkKey, e *linkEntry) {
	if e.seeded {
		return
	}
	e.removed = true
	r.mu.Lock()
	if r.links[key] == e {
		delete(r.links, key)
	}
	r.mu.Unlock()
}

// linkCount is the number of interfaces with an entry
func (r *Registry) linkCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}

// ActiveLinks lists keys whose capture is on, ordered by host then interface
func (r *Registry) ActiveLinks() []LinkKey {
	r.mu.Lock()
	entries := make(map[LinkKey]*linkEntry, len(r.links))
	for k, e := range r.links {
		entries[k] = e
	}
	r.mu.Unlock()

	keys := make([]LinkKey, 0)
	for k, e := range entries {
		e.mu.Lock()
		if e.seeded && e.active {
			keys = append(keys, k)
		}
		e.mu.Unlock()
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Host != keys[j].Host {
			return keys[i].Host < keys[j].Host
		}
		return keys[i].IfIndex < keys[j].IfIndex
	})
	return keys
}

// RecordOK stores the last successful heartbeat of host. An older timestamp
// never overwrites a newer one.
func (r *Registry) RecordOK(host string, t time.Time) {
	r.okMu.Lock()
	defer r.okMu.Unlock()
	if prev, ok := r.lastOK.Peek(host); ok && prev.After(t) {
		return
	}
	r.lastOK.Add(host, t)
}

// LastOK returns the last successful heartbeat of host, if any is retained
func (r *Registry) LastOK(host string) (time.Time, bool) {
	r.okMu.Lock()
	defer r.okMu.Unlock()
	return r.lastOK.Get(host)
}

// LivenessHosts is the number of hosts with a retained heartbeat
func (r *Registry) LivenessHosts() int {
	r.okMu.Lock()
	defer r.okMu.Unlock()
	return r.lastOK.Len()
}

func (r *Registry) putSession(s *samplingSession) *samplingSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.sessions[s.key]
	r.sessions[s.key] = s
	return prev
}

func (r *Registry) takeSession(key LinkKey) *samplingSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return nil
	}
	delete(r.sessions, key)
	return s
}

// sessionView returns a copy of the session state and its result
func (r *Registry) sessionView(key LinkKey) (*SessionState, *domain.OctetMonitorResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return nil, nil, false
	}
	return s.state(), s.result.Clone(), true
}

func (r *Registry) sessionDone(key LinkKey) (<-chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return nil, false
	}
	return s.done, true
}

func (r *Registry) completeSession(s *samplingSession, res *domain.OctetMonitorResult, err error) {
	r.mu.Lock()
	s.finished = true
	s.result = res
	s.err = err
	r.mu.Unlock()
	close(s.done)
}

// sessionStateOf snapshots a session that may already be detached from the map
func (r *Registry) sessionStateOf(s *samplingSession) *SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return s.state()
}
