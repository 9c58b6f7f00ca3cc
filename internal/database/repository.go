package database

import (
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/database/models"
)

// Repository provides access to all database models.
type Repository struct {
	ticket *models.TicketModel
	vouch  *models.VouchModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		ticket: models.NewTicket(db, logger),
		vouch:  models.NewVouch(db, logger),
	}
}

// Ticket returns the ticket model repository.
func (r *Repository) Ticket() *models.TicketModel {
	return r.ticket
}

// Vouch returns the vouch model repository.
func (r *Repository) Vouch() *models.VouchModel {
	return r.vouch
}
