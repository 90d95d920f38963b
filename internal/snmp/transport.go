package snmp

import (
	"context"
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// TransportError reports a failed or unusable SNMP GET: timeout, wrong community,
// missing instance or a value that is not an integer.
type TransportError struct {
	Host    string
	OID     string
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("snmp get %s on %s: %s", e.OID, e.Host, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transport reads a single integer value from a device agent
type Transport interface {
	GetInteger(ctx context.Context, host, oid, community string) (int64, error)
}

// Options configures the gosnmp transport
type Options struct {
	Port    uint16
	Timeout time.Duration
	Retries int
}

// GoSNMPTransport issues SNMP v2c GETs through gosnmp, one connection per request
type GoSNMPTransport struct {
	opts Options
}

// NewGoSNMPTransport creates a transport, filling in port 161, a 2s timeout and one retry
func NewGoSNMPTransport(opts Options) *GoSNMPTransport {
	if opts.Port == 0 {
		opts.Port = 161
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &GoSNMPTransport{opts: opts}
}

func (t *GoSNMPTransport) GetInteger(ctx context.Context, host, oid, community string) (int64, error) {
	params := &gosnmp.GoSNMP{
		Target:    host,
		Port:      t.opts.Port,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   t.opts.Timeout,
		Retries:   t.opts.Retries,
		Context:   ctx,
	}

	if err := params.Connect(); err != nil {
		return 0, &TransportError{Host: host, OID: oid, Message: err.Error(), Err: err}
	}
	defer params.Conn.Close()

	result, err := params.Get([]string{oid})
	if err != nil {
		zap.L().Debug("snmp get failed",
			zap.String("namespace", "snmp"),
			zap.String("host", host),
			zap.String("oid", oid),
			zap.Error(err))
		return 0, &TransportError{Host: host, OID: oid, Message: err.Error(), Err: err}
	}
	if result == nil || len(result.Variables) == 0 {
		return 0, &TransportError{Host: host, OID: oid, Message: "empty SNMP result"}
	}
	if result.Error != gosnmp.NoError {
		return 0, &TransportError{Host: host, OID: oid, Message: fmt.Sprintf("agent error %s at index %d", result.Error, result.ErrorIndex)}
	}
	return pduInteger(host, oid, result.Variables[0])
}

// pduInteger converts a variable binding to int64, rejecting exception and non-numeric types
func pduInteger(host, oid string, v gosnmp.SnmpPDU) (int64, error) {
	switch v.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return 0, &TransportError{Host: host, OID: oid, Message: fmt.Sprintf("no value (%s)", v.Type)}
	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Counter64, gosnmp.Uinteger32:
		n, err := cast.ToInt64E(v.Value)
		if err != nil {
			return 0, &TransportError{Host: host, OID: oid, Message: err.Error(), Err: err}
		}
		return n, nil
	}
	return 0, &TransportError{Host: host, OID: oid, Message: fmt.Sprintf("unexpected value type %s", v.Type)}
}
