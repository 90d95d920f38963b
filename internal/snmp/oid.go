package snmp

import "fmt"

// Object identifiers polled by the monitor (SNMPv2-MIB / IF-MIB)
const (
	OIDSysUpTime = "1.3.6.1.2.1.1.3.0"

	oidIfAdminStatus = "1.3.6.1.2.1.2.2.1.7"
	oidIfOperStatus  = "1.3.6.1.2.1.2.2.1.8"
	oidIfInOctets    = "1.3.6.1.2.1.2.2.1.10"
	oidIfOutOctets   = "1.3.6.1.2.1.2.2.1.16"
)

func ifColumn(column string, ifIndex int) string {
	return fmt.Sprintf("%s.%d", column, ifIndex)
}

func IfInOctets(ifIndex int) string    { return ifColumn(oidIfInOctets, ifIndex) }
func IfOutOctets(ifIndex int) string   { return ifColumn(oidIfOutOctets, ifIndex) }
func IfAdminStatus(ifIndex int) string { return ifColumn(oidIfAdminStatus, ifIndex) }
func IfOperStatus(ifIndex int) string  { return ifColumn(oidIfOperStatus, ifIndex) }
