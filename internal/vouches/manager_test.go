package vouches

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/database/types"
)

type fakeStore struct {
	vouches []*types.Vouch
}

func (s *fakeStore) Create(_ context.Context, vouch *types.Vouch) error {
	s.vouches = append(s.vouches, vouch)
	return nil
}

func (s *fakeStore) BySeller(_ context.Context, sellerID, guildID uint64) ([]*types.Vouch, error) {
	var result []*types.Vouch

	// Most recent first, matching the database ordering.
	for i := len(s.vouches) - 1; i >= 0; i-- {
		vouch := s.vouches[i]
		if vouch.SellerID == sellerID && vouch.GuildID == guildID {
			result = append(result, vouch)
		}
	}

	return result, nil
}

type fakeGateway struct {
	roleID          snowflake.ID
	ensureRoleCalls int
	sellerRoles     map[snowflake.ID]bool
	names           map[snowflake.ID]string
	nameErr         error
}

func (g *fakeGateway) EnsureRole(_ context.Context, _ snowflake.ID, _ string) (snowflake.ID, error) {
	g.ensureRoleCalls++
	return g.roleID, nil
}

func (g *fakeGateway) MemberHasRole(_ context.Context, _, userID, _ snowflake.ID) (bool, error) {
	return g.sellerRoles[userID], nil
}

func (g *fakeGateway) UserDisplayName(_ context.Context, userID snowflake.ID) (string, error) {
	if g.nameErr != nil {
		return "", g.nameErr
	}

	if name, ok := g.names[userID]; ok {
		return name, nil
	}

	return "user-" + userID.String(), nil
}

func newTestManager(store *fakeStore, gw *fakeGateway) *Manager {
	return NewManager(store, gw, "+rep", "Trusted Seller", zap.NewNop())
}

func validSubmission() Submission {
	return Submission{
		GuildID:   1,
		SellerID:  10,
		VoucherID: 20,
		StarsRaw:  "5",
		Product:   "widget",
		Message:   "Great +rep seller",
	}
}

func TestStartRejectsSelfVouch(t *testing.T) {
	m := newTestManager(&fakeStore{}, &fakeGateway{roleID: 7})

	require.ErrorIs(t, m.Start(10, 10), ErrSelfVouch)
	require.NoError(t, m.Start(10, 20))
}

func TestSubmitMarkerRequired(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr error
	}{
		{name: "exact marker", message: "good deal +rep"},
		{name: "uppercase marker", message: "Great +REP seller"},
		{name: "mixed case marker", message: "solid +Rep experience"},
		{name: "missing marker", message: "great seller", wantErr: ErrMarkerMissing},
		{name: "empty message", message: "", wantErr: ErrMarkerMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			m := newTestManager(store, &fakeGateway{roleID: 7})

			sub := validSubmission()
			sub.Message = tt.message

			_, err := m.Submit(context.Background(), sub)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, store.vouches, "no vouch must be recorded")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSubmitStarsValidation(t *testing.T) {
	rejected := []string{"0", "6", "abc", "", "3.5", "-1"}
	for _, raw := range rejected {
		t.Run("rejects "+raw, func(t *testing.T) {
			store := &fakeStore{}
			m := newTestManager(store, &fakeGateway{roleID: 7})

			sub := validSubmission()
			sub.StarsRaw = raw

			_, err := m.Submit(context.Background(), sub)
			require.ErrorIs(t, err, ErrInvalidStars)
			assert.Empty(t, store.vouches)
		})
	}

	for stars := MinStars; stars <= MaxStars; stars++ {
		t.Run(fmt.Sprintf("accepts %d", stars), func(t *testing.T) {
			store := &fakeStore{}
			m := newTestManager(store, &fakeGateway{roleID: 7})

			sub := validSubmission()
			sub.StarsRaw = fmt.Sprintf("%d", stars)

			receipt, err := m.Submit(context.Background(), sub)
			require.NoError(t, err)
			assert.Equal(t, stars, receipt.Vouch.Stars)
		})
	}
}

func TestSubmitMarkerCheckedBeforeStars(t *testing.T) {
	m := newTestManager(&fakeStore{}, &fakeGateway{roleID: 7})

	sub := validSubmission()
	sub.StarsRaw = "abc"
	sub.Message = "no marker here"

	_, err := m.Submit(context.Background(), sub)
	require.ErrorIs(t, err, ErrMarkerMissing, "marker failure must win over star failure")
}

func TestSubmitRecordsUnrecognizedSeller(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{roleID: 7}
	m := newTestManager(store, gw)

	receipt, err := m.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.False(t, receipt.SellerRecognized, "warning is advisory only")
	assert.Len(t, store.vouches, 1, "vouch must be recorded regardless")
	assert.Equal(t, 1, gw.ensureRoleCalls, "trust role must be ensured")
}

func TestSubmitRecognizedSeller(t *testing.T) {
	gw := &fakeGateway{roleID: 7, sellerRoles: map[snowflake.ID]bool{10: true}}
	m := newTestManager(&fakeStore{}, gw)

	receipt, err := m.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.True(t, receipt.SellerRecognized)
}

func TestSummaryAverageAndRecentOrder(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{roleID: 7, names: map[snowflake.ID]string{20: "bob"}}
	m := newTestManager(store, gw)

	for _, stars := range []int{5, 4, 5, 3, 5} {
		sub := validSubmission()
		sub.StarsRaw = fmt.Sprintf("%d", stars)

		_, err := m.Submit(context.Background(), sub)
		require.NoError(t, err)
	}

	summary, err := m.Summary(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Count)
	assert.InDelta(t, 4.4, summary.Average, 0.001)

	require.Len(t, summary.Recent, RecentLimit)
	assert.Equal(t, 5, summary.Recent[0].Stars, "most recent first")
	assert.Equal(t, 3, summary.Recent[1].Stars)
	assert.Equal(t, 5, summary.Recent[2].Stars)
	assert.Equal(t, "bob", summary.Recent[0].VoucherName)
}

func TestSummaryEmpty(t *testing.T) {
	m := newTestManager(&fakeStore{}, &fakeGateway{roleID: 7})

	summary, err := m.Summary(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Count)
	assert.Zero(t, summary.Average)
	assert.Empty(t, summary.Recent)
}

func TestSummaryNameLookupDegrades(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{roleID: 7}
	m := newTestManager(store, gw)

	_, err := m.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	gw.nameErr = errors.New("unknown user")

	summary, err := m.Summary(context.Background(), 1, 10)
	require.NoError(t, err, "a dead voucher account must not fail the summary")

	require.Len(t, summary.Recent, 1)
	assert.Equal(t, UnknownVoucherName, summary.Recent[0].VoucherName)
}

func TestSummaryScopedToGuild(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store, &fakeGateway{roleID: 7})

	sub := validSubmission()
	_, err := m.Submit(context.Background(), sub)
	require.NoError(t, err)

	otherGuild := validSubmission()
	otherGuild.GuildID = 2
	_, err = m.Submit(context.Background(), otherGuild)
	require.NoError(t, err)

	summary, err := m.Summary(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Count)
}
