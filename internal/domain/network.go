package domain

import "time"

// Network module related models

// NetRouter managed router entry, resolved by hostname to its management address
type NetRouter struct {
	ID        int64     `json:"id,string" form:"id" gorm:"primaryKey"`
	Hostname  string    `json:"hostname" form:"hostname" gorm:"uniqueIndex;size:128"` // Logical device name
	IpAdmin   string    `json:"ip_admin" form:"ip_admin" gorm:"size:64"`              // Management address polled over SNMP
	Status    string    `json:"status" form:"status" gorm:"size:20;index"`            // enabled/disabled
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (NetRouter) TableName() string {
	return "net_router"
}
