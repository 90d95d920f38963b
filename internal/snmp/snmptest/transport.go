// Package snmptest provides an in-memory snmp.Transport for tests.
package snmptest

import (
	"context"
	"errors"
	"sync"

	"github.com/talkincode/toughmon/internal/snmp"
)

type reply struct {
	value int64
	err   error
}

// Transport answers every GET from a fixed table. Unknown host and OID pairs
// fail with a timeout TransportError.
type Transport struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   int
}

func New() *Transport {
	return &Transport{replies: make(map[string]reply)}
}

// Set makes oid on host answer value until changed
func (t *Transport) Set(host, oid string, value int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[host+"|"+oid] = reply{value: value}
}

// Fail makes oid on host fail with msg until changed
func (t *Transport) Fail(host, oid, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[host+"|"+oid] = reply{err: &snmp.TransportError{Host: host, OID: oid, Message: msg, Err: errors.New(msg)}}
}

// Calls returns the number of GETs served so far
func (t *Transport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func (t *Transport) GetInteger(ctx context.Context, host, oid, community string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	r, ok := t.replies[host+"|"+oid]
	if !ok {
		return 0, &snmp.TransportError{Host: host, OID: oid, Message: "request timeout"}
	}
	return r.value, r.err
}
