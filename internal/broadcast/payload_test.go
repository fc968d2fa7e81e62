package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendo/clinic-queue/internal/model"
)

func calledTicket(id uint64, label string, at time.Time) model.Ticket {
	return model.Ticket{
		ID:           id,
		QueueID:      1,
		CustomerID:   id,
		Status:       model.StatusCalled,
		CalledAt:     &at,
		CounterLabel: &label,
	}
}

func TestNewPanelUpdateComposesMessage(t *testing.T) {
	q := model.Queue{ID: 1, Name: "General"}
	cur := calledTicket(42, "Counter 2", time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))

	u := NewPanelUpdate(q, &cur, nil, true)

	assert.Equal(t, uint64(1), u.QueueID)
	assert.Equal(t, "General", u.QueueName)
	require.NotNil(t, u.Current)
	assert.Equal(t, uint64(42), u.Current.TicketID)
	assert.Equal(t, "Counter 2", u.Current.CounterLabel)
	assert.Equal(t, "2026-03-02T09:30:00Z", u.Current.CalledAt)
	assert.Equal(t, "Ticket 42, proceed to Counter 2", u.Message)
	assert.True(t, u.Sound)
	assert.NotNil(t, u.Recent)
	assert.Empty(t, u.Recent)
}

func TestNewPanelUpdateWithoutCurrentCall(t *testing.T) {
	u := NewPanelUpdate(model.Queue{ID: 1, Name: "General"}, nil, nil, false)
	assert.Nil(t, u.Current)
	assert.Empty(t, u.Message)
	assert.False(t, u.Sound)
}

func TestNewPanelUpdateCapsRecentCalls(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	recent := make([]model.Ticket, 0, 5)
	for i := uint64(1); i <= 5; i++ {
		recent = append(recent, calledTicket(i, "Counter 1", base.Add(time.Duration(i)*time.Minute)))
	}

	u := NewPanelUpdate(model.Queue{ID: 1, Name: "General"}, nil, recent, false)

	require.Len(t, u.Recent, RecentCalls)
	// Order is whatever the store returned; only the cap is enforced here.
	assert.Equal(t, uint64(1), u.Recent[0].TicketID)
}

func TestNewCalledTicketWithoutCallFields(t *testing.T) {
	c := NewCalledTicket(model.Ticket{ID: 7, CustomerID: 3, Status: model.StatusWaiting})
	assert.Equal(t, uint64(7), c.TicketID)
	assert.Empty(t, c.CounterLabel)
	assert.Empty(t, c.CalledAt)
}

func TestNewStaffUpdateNeverNilQueues(t *testing.T) {
	u := NewStaffUpdate(10, nil)
	assert.Equal(t, uint64(10), u.SectorID)
	require.NotNil(t, u.Queues)
	assert.Empty(t, u.Queues)
}
