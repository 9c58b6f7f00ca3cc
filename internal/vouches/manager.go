package vouches

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/database/types"
)

const (
	// MinStars and MaxStars bound a valid star rating.
	MinStars = 1
	MaxStars = 5

	// RecentLimit is how many vouches a summary shows in detail.
	RecentLimit = 3

	// UnknownVoucherName substitutes a voucher whose account no longer resolves.
	UnknownVoucherName = "Unknown User"
)

var (
	// ErrSelfVouch indicates the voucher and seller are the same user.
	ErrSelfVouch = errors.New("cannot vouch for yourself")
	// ErrMarkerMissing indicates the message lacks the required trust marker.
	ErrMarkerMissing = errors.New("vouch message is missing the required trust marker")
	// ErrInvalidStars indicates the star rating did not parse to an integer in range.
	ErrInvalidStars = errors.New("star rating must be an integer between 1 and 5")
)

// Store persists vouch records.
type Store interface {
	// Create inserts a new vouch record.
	Create(ctx context.Context, vouch *types.Vouch) error
	// BySeller returns all vouches for a seller in a guild, most recent first.
	BySeller(ctx context.Context, sellerID, guildID uint64) ([]*types.Vouch, error)
}

// Gateway exposes the role and user operations the manager needs from Discord.
type Gateway interface {
	// EnsureRole resolves the named role, creating it if absent.
	// Creation is idempotent by name; a create race is tolerated because
	// subsequent lookups resolve by name.
	EnsureRole(ctx context.Context, guildID snowflake.ID, name string) (snowflake.ID, error)
	// MemberHasRole reports whether the guild member holds the role.
	MemberHasRole(ctx context.Context, guildID, userID, roleID snowflake.ID) (bool, error)
	// UserDisplayName resolves a user's display name.
	UserDisplayName(ctx context.Context, userID snowflake.ID) (string, error)
}

// Manager validates and records vouches, maintains the trust role, and
// computes aggregate reputation on demand.
type Manager struct {
	store    Store
	gateway  Gateway
	logger   *zap.Logger
	marker   string
	roleName string
}

// NewManager creates a vouch lifecycle manager.
func NewManager(store Store, gateway Gateway, marker, roleName string, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		gateway:  gateway,
		logger:   logger.Named("vouches"),
		marker:   marker,
		roleName: roleName,
	}
}

// Marker returns the trust marker a vouch message must contain.
func (m *Manager) Marker() string {
	return m.marker
}

// Start checks whether a vouch flow may begin for the pair.
// Self-vouches are rejected before any form is shown.
func (m *Manager) Start(voucherID, sellerID snowflake.ID) error {
	if voucherID == sellerID {
		return ErrSelfVouch
	}

	return nil
}

// Submission carries the raw form values of a vouch.
type Submission struct {
	GuildID   snowflake.ID
	SellerID  snowflake.ID
	VoucherID snowflake.ID
	StarsRaw  string
	Product   string
	Message   string
}

// Receipt describes a recorded vouch.
type Receipt struct {
	Vouch *types.Vouch
	// SellerRecognized is false when the seller does not hold the trust
	// role. Advisory only: the vouch is recorded regardless.
	SellerRecognized bool
}

// Submit validates a submission and persists the vouch.
// Validation short-circuits: the trust marker is checked first, then the
// star rating. The caller must announce the vouch only after Submit
// returns so an unrecorded vouch is never announced.
func (m *Manager) Submit(ctx context.Context, sub Submission) (*Receipt, error) {
	if !strings.Contains(strings.ToLower(sub.Message), strings.ToLower(m.marker)) {
		return nil, ErrMarkerMissing
	}

	stars, err := strconv.Atoi(strings.TrimSpace(sub.StarsRaw))
	if err != nil || stars < MinStars || stars > MaxStars {
		return nil, ErrInvalidStars
	}

	if sub.VoucherID == sub.SellerID {
		return nil, ErrSelfVouch
	}

	recognized := m.SellerRecognized(ctx, sub.GuildID, sub.SellerID)

	vouch := &types.Vouch{
		SellerID:  uint64(sub.SellerID),
		VoucherID: uint64(sub.VoucherID),
		GuildID:   uint64(sub.GuildID),
		Stars:     stars,
		Product:   sub.Product,
		Message:   sub.Message,
		CreatedAt: time.Now(),
	}
	if err := m.store.Create(ctx, vouch); err != nil {
		return nil, fmt.Errorf("failed to persist vouch: %w", err)
	}

	m.logger.Info("Vouch recorded",
		zap.Uint64("seller_id", vouch.SellerID),
		zap.Uint64("voucher_id", vouch.VoucherID),
		zap.Int("stars", vouch.Stars))

	return &Receipt{Vouch: vouch, SellerRecognized: recognized}, nil
}

// SellerRecognized reports whether the seller holds the trust role,
// ensuring the role exists first. Gateway failures degrade to an
// unrecognized seller; the check never blocks vouch recording.
func (m *Manager) SellerRecognized(ctx context.Context, guildID, sellerID snowflake.ID) bool {
	roleID, err := m.gateway.EnsureRole(ctx, guildID, m.roleName)
	if err != nil {
		m.logger.Warn("Failed to ensure trust role",
			zap.Uint64("guild_id", uint64(guildID)),
			zap.Error(err))

		return false
	}

	hasRole, err := m.gateway.MemberHasRole(ctx, guildID, sellerID, roleID)
	if err != nil {
		m.logger.Warn("Failed to check trust role membership",
			zap.Uint64("seller_id", uint64(sellerID)),
			zap.Error(err))

		return false
	}

	return hasRole
}

// SummaryEntry is one vouch shown in the detail section of a summary.
type SummaryEntry struct {
	Stars       int
	Product     string
	Message     string
	VoucherName string
	CreatedAt   time.Time
}

// Summary is the aggregate reputation of a seller.
type Summary struct {
	SellerID snowflake.ID
	Count    int
	// Average star rating rounded to one decimal place.
	Average float64
	// Recent holds up to RecentLimit vouches, most recent first.
	Recent []SummaryEntry
}

// Summary computes the seller's aggregate reputation. A seller without
// vouches yields a zero-count summary rather than an error.
func (m *Manager) Summary(ctx context.Context, guildID, sellerID snowflake.ID) (*Summary, error) {
	vouches, err := m.store.BySeller(ctx, uint64(sellerID), uint64(guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vouches: %w", err)
	}

	summary := &Summary{SellerID: sellerID, Count: len(vouches)}
	if len(vouches) == 0 {
		return summary, nil
	}

	total := 0
	for _, vouch := range vouches {
		total += vouch.Stars
	}

	summary.Average = math.Round(float64(total)/float64(len(vouches))*10) / 10

	recent := vouches
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	for _, vouch := range recent {
		name, err := m.gateway.UserDisplayName(ctx, snowflake.ID(vouch.VoucherID))
		if err != nil {
			// The account may no longer exist; a placeholder beats failing the response.
			m.logger.Debug("Failed to resolve voucher name",
				zap.Uint64("voucher_id", vouch.VoucherID),
				zap.Error(err))

			name = UnknownVoucherName
		}

		summary.Recent = append(summary.Recent, SummaryEntry{
			Stars:       vouch.Stars,
			Product:     vouch.Product,
			Message:     vouch.Message,
			VoucherName: name,
			CreatedAt:   vouch.CreatedAt,
		})
	}

	return summary, nil
}
