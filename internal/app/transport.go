package app

import (
	"context"

	"github.com/talkincode/toughmon/internal/snmp"
	"github.com/talkincode/toughmon/pkg/metrics"
)

// instrumentedTransport counts SNMP request outcomes
type instrumentedTransport struct {
	next snmp.Transport
}

func (t instrumentedTransport) GetInteger(ctx context.Context, host, oid, community string) (int64, error) {
	v, err := t.next.GetInteger(ctx, host, oid, community)
	if err != nil {
		metrics.Inc("snmp_requests_failed")
		return v, err
	}
	metrics.Inc("snmp_requests_ok")
	return v, nil
}
