package domain

import "time"

// Interface operational status values (IF-MIB ifOperStatus).
const (
	OperStatusUp             = 1
	OperStatusDown           = 2
	OperStatusTesting        = 3
	OperStatusUnknown        = 4
	OperStatusDormant        = 5
	OperStatusNotPresent     = 6
	OperStatusLowerLayerDown = 7
)

// Interface administrative status values (IF-MIB ifAdminStatus).
const (
	AdminStatusUp      = 1
	AdminStatusDown    = 2
	AdminStatusTesting = 3
)

const (
	LivenessUp   = "UP"
	LivenessDown = "DOWN"
)

// Synthetic link event kinds
const (
	EventLinkUp   = "linkUp"
	EventLinkDown = "linkDown"
)

// MonitorSample is one per-second bandwidth figure derived from two octet counter reads
type MonitorSample struct {
	T      int     `json:"t"`
	InBps  float64 `json:"in_bps"`
	OutBps float64 `json:"out_bps"`
}

// OctetMonitorResult is the outcome of one sampling session on an interface.
// AvgInBps and AvgOutBps are the means of Samples; LastInOctets and LastOutOctets
// are the final raw counter values.
type OctetMonitorResult struct {
	Samples       []MonitorSample `json:"samples"`
	AvgInBps      float64         `json:"avg_in_bps"`
	AvgOutBps     float64         `json:"avg_out_bps"`
	LastInOctets  uint32          `json:"last_in_octets"`
	LastOutOctets uint32          `json:"last_out_octets"`
	Partial       bool            `json:"partial,omitempty"` // set only when partial results are enabled
}

// Clone returns a deep copy safe to hand to callers
func (r *OctetMonitorResult) Clone() *OctetMonitorResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Samples = append([]MonitorSample(nil), r.Samples...)
	return &c
}

// LivenessStatus is the heartbeat verdict for one host
type LivenessStatus struct {
	State           string     `json:"state"`
	UptimeSeconds   *float64   `json:"uptime_seconds"`
	TimeSinceLastOk *float64   `json:"time_since_last_ok"`
	LastResponse    *time.Time `json:"last_response"`
	Error           string     `json:"error,omitempty"`
}

// TrapEvent is a synthetic link transition inferred from two consecutive oper status reads.
// No SNMP notification is ever received.
type TrapEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"event"`
	OldStatus int       `json:"old_status"`
	NewStatus int       `json:"new_status"`
}

// LinkStateEntry is a snapshot of the link capture state of one interface
type LinkStateEntry struct {
	Host            string      `json:"host"`
	IfIndex         int         `json:"if_index"`
	AdminStatus     int         `json:"admin_status"`
	OperStatus      int         `json:"oper_status"`
	AdminStatusText string      `json:"admin_status_text"`
	OperStatusText  string      `json:"oper_status_text"`
	Active          bool        `json:"trap_capture_active"`
	LastOperStatus  int         `json:"last_oper_status"`
	LastChange      *time.Time  `json:"last_change"`
	Events          []TrapEvent `json:"events"`
}

// OperStatusText returns the IF-MIB name of an operational status value
func OperStatusText(v int) string {
	switch v {
	case OperStatusUp:
		return "up"
	case OperStatusDown:
		return "down"
	case OperStatusTesting:
		return "testing"
	case OperStatusUnknown:
		return "unknown"
	case OperStatusDormant:
		return "dormant"
	case OperStatusNotPresent:
		return "notPresent"
	case OperStatusLowerLayerDown:
		return "lowerLayerDown"
	}
	return "unknown"
}

// AdminStatusText returns the IF-MIB name of an administrative status value
func AdminStatusText(v int) string {
	switch v {
	case AdminStatusUp:
		return "up"
	case AdminStatusDown:
		return "down"
	case AdminStatusTesting:
		return "testing"
	}
	return "unknown"
}
