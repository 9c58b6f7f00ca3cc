package tickets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/database/types"
)

type fakeStore struct {
	tickets   []*types.Ticket
	createErr error
	// forceCloseRace makes CloseActive report the ticket as already
	// closed, as if a concurrent close won the conditional update.
	forceCloseRace bool
}

func (s *fakeStore) Create(_ context.Context, ticket *types.Ticket) error {
	if s.createErr != nil {
		return s.createErr
	}

	s.tickets = append(s.tickets, ticket)

	return nil
}

func (s *fakeStore) ActiveByUser(_ context.Context, userID, guildID uint64) (*types.Ticket, error) {
	for _, ticket := range s.tickets {
		if !ticket.Closed && ticket.UserID == userID && ticket.GuildID == guildID {
			return ticket, nil
		}
	}

	return nil, nil
}

func (s *fakeStore) ActiveByChannel(_ context.Context, channelID uint64) (*types.Ticket, error) {
	for _, ticket := range s.tickets {
		if !ticket.Closed && ticket.ChannelID == channelID {
			return ticket, nil
		}
	}

	return nil, nil
}

func (s *fakeStore) CloseActive(_ context.Context, channelID uint64) (bool, error) {
	if s.forceCloseRace {
		return false, nil
	}

	for _, ticket := range s.tickets {
		if !ticket.Closed && ticket.ChannelID == channelID {
			ticket.Closed = true
			return true, nil
		}
	}

	return false, nil
}

type fakeGateway struct {
	nextChannelID   uint64
	createCalls     int
	createErr       error
	deletedChannels []snowflake.ID
}

func (g *fakeGateway) EnsureCategory(_ context.Context, _ snowflake.ID, _ string) (snowflake.ID, error) {
	return snowflake.ID(100), nil
}

func (g *fakeGateway) CreateTicketChannel(
	_ context.Context, _, _, _ snowflake.ID, _ string,
) (snowflake.ID, error) {
	if g.createErr != nil {
		return 0, g.createErr
	}

	g.createCalls++
	g.nextChannelID++

	return snowflake.ID(g.nextChannelID), nil
}

func (g *fakeGateway) DeleteChannel(_ context.Context, channelID snowflake.ID) error {
	g.deletedChannels = append(g.deletedChannels, channelID)
	return nil
}

func newTestManager(store *fakeStore, gw *fakeGateway) *Manager {
	m := NewManager(store, gw, "Tickets", zap.NewNop())
	// Run scheduled deletions inline so tests see them immediately.
	m.schedule = func(_ time.Duration, f func()) { f() }

	return m
}

func TestOpenCreatesChannelAndRecord(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{nextChannelID: 200}
	m := newTestManager(store, gw)

	result, err := m.Open(context.Background(), 1, 42, "alice")
	require.NoError(t, err)

	assert.False(t, result.Existing)
	assert.Equal(t, snowflake.ID(201), result.ChannelID)
	require.Len(t, store.tickets, 1)
	assert.Equal(t, uint64(42), store.tickets[0].UserID)
	assert.Equal(t, uint64(1), store.tickets[0].GuildID)
	assert.False(t, store.tickets[0].Closed)
}

func TestOpenReturnsExistingTicket(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{nextChannelID: 200}
	m := newTestManager(store, gw)

	first, err := m.Open(context.Background(), 1, 42, "alice")
	require.NoError(t, err)

	second, err := m.Open(context.Background(), 1, 42, "alice")
	require.NoError(t, err)

	assert.True(t, second.Existing)
	assert.Equal(t, first.ChannelID, second.ChannelID)
	assert.Equal(t, 1, gw.createCalls, "no second channel must be created")
	assert.Len(t, store.tickets, 1, "no second record must be persisted")
}

func TestOpenAllowsDifferentGuilds(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{nextChannelID: 200}
	m := newTestManager(store, gw)

	_, err := m.Open(context.Background(), 1, 42, "alice")
	require.NoError(t, err)

	result, err := m.Open(context.Background(), 2, 42, "alice")
	require.NoError(t, err)

	assert.False(t, result.Existing)
	assert.Len(t, store.tickets, 2)
}

func TestOpenChannelFailureLeavesNoRecord(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{createErr: errors.New("missing permissions")}
	m := newTestManager(store, gw)

	_, err := m.Open(context.Background(), 1, 42, "alice")
	require.Error(t, err)

	assert.Empty(t, store.tickets)
}

func TestCloseByOwner(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{nextChannelID: 200}
	m := newTestManager(store, gw)

	opened, err := m.Open(context.Background(), 1, 42, "alice")
	require.NoError(t, err)

	result, err := m.Close(context.Background(), opened.ChannelID, 42, false)
	require.NoError(t, err)

	assert.Equal(t, snowflake.ID(42), result.OwnerID)
	assert.True(t, store.tickets[0].Closed)
	assert.Equal(t, []snowflake.ID{opened.ChannelID}, gw.deletedChannels)
}

func TestCloseByStaff(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{nextChannelID: 200}
	m := newTestManager(store, gw)

	opened, err := m.Open(context.Background(), 1, 42, "alice")
	require.NoError(t, err)

	_, err = m.Close(context.Background(), opened.ChannelID, 99, true)
	require.NoError(t, err)

	assert.True(t, store.tickets[0].Closed)
}

func TestCloseUnauthorized(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{nextChannelID: 200}
	m := newTestManager(store, gw)

	opened, err := m.Open(context.Background(), 1, 42, "alice")
	require.NoError(t, err)

	_, err = m.Close(context.Background(), opened.ChannelID, 99, false)
	require.ErrorIs(t, err, ErrNotAuthorized)

	assert.False(t, store.tickets[0].Closed, "ticket must remain open")
	assert.Empty(t, gw.deletedChannels, "channel must remain")
}

func TestCloseNotTicketChannel(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{}
	m := newTestManager(store, gw)

	_, err := m.Close(context.Background(), 555, 42, false)
	require.ErrorIs(t, err, ErrNoActiveTicket)
}

func TestCloseRaceSecondCloseLoses(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{nextChannelID: 200}
	m := newTestManager(store, gw)

	opened, err := m.Open(context.Background(), 1, 42, "alice")
	require.NoError(t, err)

	_, err = m.Close(context.Background(), opened.ChannelID, 42, false)
	require.NoError(t, err)

	// Both requests passed the lookup before either closed; the
	// conditional update lets only one transition through.
	store.tickets[0].Closed = false
	store.forceCloseRace = true

	_, err = m.Close(context.Background(), opened.ChannelID, 42, true)
	require.ErrorIs(t, err, ErrNoActiveTicket)

	assert.Len(t, gw.deletedChannels, 1, "only one deletion must be scheduled")
}
