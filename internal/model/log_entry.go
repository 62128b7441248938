package model

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// LogEntry is one audit record. Entries are append-only.
// UserID deliberately carries no foreign key: the trail keeps whatever caller
// id it was given, even for users that never existed.
type LogEntry struct {
	ID        string    `json:"id" gorm:"type:char(26);primaryKey"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
	Action    string    `json:"action" gorm:"size:100;not null;index"`
	Details   string    `json:"details" gorm:"size:255"`
	UserID    *string   `json:"user_id" gorm:"type:char(36);index"`
}

// TableName keeps the historical table name.
func (LogEntry) TableName() string {
	return "logs"
}

// BeforeCreate stamps the entry with a time-ordered ID and write time.
func (l *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	if l.ID == "" {
		l.ID = ulid.MustNew(ulid.Timestamp(l.Timestamp), ulid.DefaultEntropy()).String()
	}
	return nil
}
