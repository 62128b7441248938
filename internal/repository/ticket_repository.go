package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ticketdesk/internal/model"
)

// TicketRepository defines ticket persistence operations.
type TicketRepository interface {
	Insert(ctx context.Context, ticket *model.Ticket) error
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	FindByID(ctx context.Context, id string) (*model.Ticket, error)
	ListAll(ctx context.Context) ([]model.Ticket, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	CountByCreator(ctx context.Context, userID string) (int64, error)
	CountByAssignee(ctx context.Context, userID string) (int64, error)
}

type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// Insert creates a ticket row without touching the referenced users.
// A title collision yields ErrDuplicate.
func (r *ticketRepository) Insert(ctx context.Context, ticket *model.Ticket) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(ticket).Error; err != nil {
		return fmt.Errorf("insert ticket: %w", translate(err))
	}
	return nil
}

// ExistsByTitle is a fast-path check only; the unique index is authoritative.
func (r *ticketRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&model.Ticket{}).Where("title = ?", title).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check ticket title: %w", err)
	}
	return count > 0, nil
}

// FindByID loads a ticket with creator, assignee and attachments resolved.
func (r *ticketRepository) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := r.withRelations(ctx).Where("tickets.id = ?", id).First(&ticket).Error; err != nil {
		return nil, translate(err)
	}
	normalize(&ticket)
	return &ticket, nil
}

// ListAll returns every ticket, most urgent first. Creator and assignee come
// from the same query; attachments from one extra query for the whole set.
func (r *ticketRepository) ListAll(ctx context.Context) ([]model.Ticket, error) {
	tickets := make([]model.Ticket, 0)
	err := r.withRelations(ctx).
		Order("tickets.priority DESC").
		Order("tickets.created_at ASC").
		Order("tickets.id ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	for i := range tickets {
		normalize(&tickets[i])
	}
	return tickets, nil
}

// DeleteByID physically removes the ticket and its attachment metadata.
// It reports whether a ticket row was removed. Call it inside a transaction.
func (r *ticketRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	db := conn(ctx, r.db)
	if err := db.Where("ticket_id = ?", id).Delete(&model.Attachment{}).Error; err != nil {
		return false, fmt.Errorf("delete attachments of ticket %s: %w", id, err)
	}
	res := db.Where("id = ?", id).Delete(&model.Ticket{})
	if res.Error != nil {
		return false, fmt.Errorf("delete ticket %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *ticketRepository) CountByCreator(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Ticket{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *ticketRepository) CountByAssignee(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Ticket{}).Where("assignee_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *ticketRepository) withRelations(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).
		Joins("Creator").
		Joins("Assignee").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("attachments.created_at ASC")
		})
}

// normalize makes empty relations serialize as [] rather than null.
func normalize(t *model.Ticket) {
	if t.Attachments == nil {
		t.Attachments = []model.Attachment{}
	}
}

// AttachmentRepository defines attachment metadata persistence operations.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *model.Attachment) error
}

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new attachment repository.
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *model.Attachment) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(attachment).Error; err != nil {
		return fmt.Errorf("create attachment: %w", translate(err))
	}
	return nil
}
