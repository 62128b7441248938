package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketStatusOpen is the status of every newly created ticket.
const TicketStatusOpen = "Open"

// MaxTitleLength bounds Ticket.Title.
const MaxTitleLength = 200

// Ticket is a trackable unit of work. Titles are unique across all tickets.
type Ticket struct {
	ID          string    `json:"id" gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title" gorm:"size:200;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Status      string    `json:"status" gorm:"size:20;not null;default:'Open'"`
	Priority    Priority  `json:"priority" gorm:"not null;default:1;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
	Comments    string    `json:"comments" gorm:"size:300"`
	CreatorID   string    `json:"user_id" gorm:"column:user_id;type:char(36);not null;index"`
	AssigneeID  *string   `json:"assignee_id" gorm:"type:char(36);index"`

	// Relations
	Creator     *User        `json:"creator" gorm:"foreignKey:CreatorID;constraint:OnDelete:RESTRICT"`
	Assignee    *User        `json:"assignee" gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL"`
	Attachments []Attachment `json:"attachments" gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID and defaults before creating the record.
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	if t.Priority == 0 {
		t.Priority = DefaultPriority
	}
	return nil
}

// Attachment is metadata for a file stored elsewhere.
type Attachment struct {
	ID        string    `json:"id" gorm:"type:char(36);primaryKey"`
	FileURL   string    `json:"file_url" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"-"`
	UserID    string    `json:"user_id" gorm:"type:char(36);not null;index"`
	TicketID  string    `json:"-" gorm:"type:char(36);not null;index"`

	Uploader *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
