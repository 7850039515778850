package model

import "time"

// AuditTypeBroadcast marks an admin broadcast.
const AuditTypeBroadcast = "broadcast"

// AuditLog records one administrative action. Rows are append-only.
type AuditLog struct {
	ID        string `gorm:"primaryKey;size:36"`
	Type      string `gorm:"index;size:32"`
	ActorID   int64  `gorm:"index"`
	Message   string
	CreatedAt time.Time
}

func (AuditLog) TableName() string { return "audit_logs" }
