package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/internal/snmp"
)

type reading struct {
	value int64
	err   error
}

// fakeTransport replays scripted readings per host+oid; the last reading repeats
type fakeTransport struct {
	mu       sync.Mutex
	readings map[string][]reading
	calls    map[string]int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		readings: make(map[string][]reading),
		calls:    make(map[string]int),
	}
}

func (f *fakeTransport) script(host, oid string, values ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		f.readings[host+"|"+oid] = append(f.readings[host+"|"+oid], reading{value: v})
	}
}

func (f *fakeTransport) fail(host, oid, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := &snmp.TransportError{Host: host, OID: oid, Message: msg, Err: errors.New(msg)}
	f.readings[host+"|"+oid] = append(f.readings[host+"|"+oid], reading{err: err})
}

func (f *fakeTransport) callCount(host, oid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[host+"|"+oid]
}

func (f *fakeTransport) GetInteger(ctx context.Context, host, oid, community string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := host + "|" + oid
	f.calls[k]++
	q := f.readings[k]
	if len(q) == 0 {
		return 0, &snmp.TransportError{Host: host, OID: oid, Message: "request timeout"}
	}
	r := q[0]
	if len(q) > 1 {
		f.readings[k] = q[1:]
	}
	return r.value, r.err
}

type published struct {
	key LinkKey
	ev  domain.TrapEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topic string, args ...interface{}) {
	if topic != TopicLinkEvent || len(args) != 2 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: args[0].(LinkKey), ev: args[1].(domain.TrapEvent)})
}

// driveClock advances the mock clock until fn returns
func driveClock(t *testing.T, mock *clock.Mock, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatal("timed out driving mock clock")
		default:
			mock.Add(time.Second)
		}
	}
}
