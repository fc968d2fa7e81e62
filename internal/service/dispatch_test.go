package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendo/clinic-queue/internal/broadcast"
	"github.com/attendo/clinic-queue/internal/model"
	"github.com/attendo/clinic-queue/internal/repository"
)

// ----- fakes -----

type fakeQueues struct {
	queues map[uint64]*model.Queue
}

func (f *fakeQueues) QueueByID(_ context.Context, id uint64) (*model.Queue, error) {
	q, ok := f.queues[id]
	if !ok {
		return nil, repository.ErrQueueNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQueues) QueuesBySector(_ context.Context, sectorID uint64) ([]model.Queue, error) {
	out := make([]model.Queue, 0)
	for _, q := range f.queues {
		if q.SectorID == sectorID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeCustomers struct {
	customers map[uint64]*model.Customer
}

func (f *fakeCustomers) CustomerByID(_ context.Context, id uint64) (*model.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

type fakeOperators struct {
	operators map[uint64]*model.Operator
}

func (f *fakeOperators) OperatorByID(_ context.Context, id uint64) (*model.Operator, error) {
	o, ok := f.operators[id]
	if !ok || !o.Active {
		return nil, repository.ErrOperatorNotFound
	}
	cp := *o
	return &cp, nil
}

// fakeTickets is an in-memory TicketStore with the same conditional
// update semantics as the SQL repository.  beforeClaim, when set, runs
// on the row just before the status check so tests can simulate a
// concurrent dispatcher winning the claim first.
type fakeTickets struct {
	mu          sync.Mutex
	nextID      uint64
	rows        map[uint64]*model.Ticket
	beforeClaim func(t *model.Ticket)
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{rows: make(map[uint64]*model.Ticket)}
}

func (f *fakeTickets) Create(_ context.Context, t *model.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = f.nextID
	cp := *t
	f.rows[t.ID] = &cp
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id uint64) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTickets) ExistsWaiting(_ context.Context, customerID, queueID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.rows {
		if t.CustomerID == customerID && t.QueueID == queueID && t.Status == model.StatusWaiting {
			return true, nil
		}
	}
	return false, nil
}

func callOrder(a, b *model.Ticket) bool {
	if a.Priority != b.Priority {
		return a.Priority
	}
	if !a.EnteredAt.Equal(b.EnteredAt) {
		return a.EnteredAt.Before(b.EnteredAt)
	}
	return a.ID < b.ID
}

func (f *fakeTickets) NextEligible(_ context.Context, queueID uint64, returnVisit bool) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *model.Ticket
	for _, t := range f.rows {
		if t.QueueID != queueID || t.Status != model.StatusWaiting || t.ReturnVisit != returnVisit {
			continue
		}
		if best == nil || callOrder(t, best) {
			best = t
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeTickets) WaitingList(_ context.Context, queueID uint64) ([]model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Ticket, 0)
	for _, t := range f.rows {
		if t.QueueID == queueID && t.Status == model.StatusWaiting {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return callOrder(&out[i], &out[j]) })
	return out, nil
}

func (f *fakeTickets) LastCalled(_ context.Context, queueID uint64) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *model.Ticket
	for _, t := range f.rows {
		if t.QueueID != queueID || t.Status != model.StatusCalled {
			continue
		}
		if best == nil || t.CalledAt.After(*best.CalledAt) ||
			(t.CalledAt.Equal(*best.CalledAt) && t.ID > best.ID) {
			best = t
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeTickets) RecentCalled(_ context.Context, queueID uint64, limit int) ([]model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Ticket, 0)
	for _, t := range f.rows {
		if t.QueueID == queueID && t.Status == model.StatusCalled {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CalledAt.Equal(*b.CalledAt) {
			return a.CalledAt.After(*b.CalledAt)
		}
		return a.ID > b.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTickets) Claim(_ context.Context, ticketID, operatorID uint64, counterLabel string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[ticketID]
	if !ok {
		return false, nil
	}
	if f.beforeClaim != nil {
		f.beforeClaim(t)
	}
	if t.Status != model.StatusWaiting {
		return false, nil
	}
	called := at
	label := counterLabel
	op := operatorID
	t.Status = model.StatusCalled
	t.CalledAt = &called
	t.CounterLabel = &label
	t.OperatorID = &op
	return true, nil
}

func (f *fakeTickets) Finish(_ context.Context, ticketID uint64, to model.TicketStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[ticketID]
	if !ok {
		return false, nil
	}
	if !t.Status.CanTransition(to) || !to.Terminal() {
		return false, nil
	}
	finished := at
	t.Status = to
	t.FinishedAt = &finished
	return true, nil
}

// fakePublisher records everything published and can be forced to fail.
type fakePublisher struct {
	mu     sync.Mutex
	panels []broadcast.PanelUpdate
	staffs []broadcast.StaffUpdate
	err    error
}

func (f *fakePublisher) PublishPanel(_ context.Context, _ uint64, u broadcast.PanelUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.panels = append(f.panels, u)
	return nil
}

func (f *fakePublisher) PublishStaff(_ context.Context, _ uint64, u broadcast.StaffUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.staffs = append(f.staffs, u)
	return nil
}

func (f *fakePublisher) lastPanel(t *testing.T) broadcast.PanelUpdate {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.panels)
	return f.panels[len(f.panels)-1]
}

// ----- fixture -----

const (
	generalQueueID = 1
	returnQueueID  = 2
	closedQueueID  = 3
	sectorID       = 10
	operatorAID    = 7
	operatorBID    = 8
)

type fixture struct {
	d       *Dispatcher
	tickets *fakeTickets
	pub     *fakePublisher
	clock   *time.Time
}

// tick advances the test clock so successive tickets get distinct
// entered_at stamps, mirroring real arrivals.
func (fx *fixture) tick() {
	*fx.clock = fx.clock.Add(time.Minute)
}

func (fx *fixture) admit(t *testing.T, customerID, queueID uint64, priority, returnVisit bool) *model.Ticket {
	t.Helper()
	fx.tick()
	tk, err := fx.d.Admit(context.Background(), AdmitRequest{
		CustomerID:  customerID,
		QueueID:     queueID,
		Priority:    priority,
		ReturnVisit: returnVisit,
	})
	require.NoError(t, err)
	return tk
}

func newFixture() *fixture {
	queues := &fakeQueues{queues: map[uint64]*model.Queue{
		generalQueueID: {ID: generalQueueID, UnitID: 1, SectorID: sectorID, Name: "General", Active: true},
		returnQueueID:  {ID: returnQueueID, UnitID: 1, SectorID: sectorID, Name: "Medical Attendance", Active: true},
		closedQueueID:  {ID: closedQueueID, UnitID: 1, SectorID: sectorID, Name: "Closed", Active: false},
	}}
	customers := &fakeCustomers{customers: map[uint64]*model.Customer{
		1: {ID: 1, FullName: "Ana Souza"},
		2: {ID: 2, FullName: "Bruno Lima"},
		3: {ID: 3, FullName: "Carla Dias"},
		4: {ID: 4, FullName: "Davi Rocha"},
	}}
	operators := &fakeOperators{operators: map[uint64]*model.Operator{
		operatorAID: {ID: operatorAID, FullName: "Op A", Role: model.RoleOperator, Active: true},
		operatorBID: {ID: operatorBID, FullName: "Op B", Role: model.RoleOperator, Active: true},
	}}
	tickets := newFakeTickets()
	pub := &fakePublisher{}

	d := NewDispatcher(queues, customers, operators, tickets, pub, "Medical Attendance")
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	return &fixture{d: d, tickets: tickets, pub: pub, clock: &clock}
}

// ----- admit -----

func TestAdmitCreatesWaitingTicket(t *testing.T) {
	fx := newFixture()
	tk := fx.admit(t, 1, generalQueueID, true, false)

	assert.NotZero(t, tk.ID)
	assert.Equal(t, model.StatusWaiting, tk.Status)
	assert.True(t, tk.Priority)
	assert.False(t, tk.ReturnVisit)
	assert.Nil(t, tk.CalledAt)
	assert.Nil(t, tk.OperatorID)

	// The admission publishes a silent panel refresh and a staff update.
	require.Len(t, fx.pub.panels, 1)
	assert.False(t, fx.pub.panels[0].Sound)
	require.Len(t, fx.pub.staffs, 1)
	assert.Equal(t, uint64(sectorID), fx.pub.staffs[0].SectorID)
}

func TestAdmitRejectsSecondWaitingTicket(t *testing.T) {
	fx := newFixture()
	fx.admit(t, 1, generalQueueID, false, false)

	_, err := fx.d.Admit(context.Background(), AdmitRequest{CustomerID: 1, QueueID: generalQueueID})
	assert.ErrorIs(t, err, ErrAlreadyWaiting)
}

func TestAdmitAllowsSameCustomerInAnotherQueue(t *testing.T) {
	fx := newFixture()
	fx.admit(t, 1, generalQueueID, false, false)

	_, err := fx.d.Admit(context.Background(), AdmitRequest{CustomerID: 1, QueueID: returnQueueID})
	assert.NoError(t, err)
}

func TestAdmitAllowsReadmissionAfterTerminal(t *testing.T) {
	fx := newFixture()
	tk := fx.admit(t, 1, generalQueueID, false, false)
	_, err := fx.d.Cancel(context.Background(), tk.ID)
	require.NoError(t, err)

	_, err = fx.d.Admit(context.Background(), AdmitRequest{CustomerID: 1, QueueID: generalQueueID})
	assert.NoError(t, err)
}

func TestAdmitInactiveQueue(t *testing.T) {
	fx := newFixture()
	_, err := fx.d.Admit(context.Background(), AdmitRequest{CustomerID: 1, QueueID: closedQueueID})
	assert.ErrorIs(t, err, ErrQueueInactive)
}

func TestAdmitUnknownCustomerOrQueue(t *testing.T) {
	fx := newFixture()

	_, err := fx.d.Admit(context.Background(), AdmitRequest{CustomerID: 99, QueueID: generalQueueID})
	assert.ErrorIs(t, err, repository.ErrCustomerNotFound)

	_, err = fx.d.Admit(context.Background(), AdmitRequest{CustomerID: 1, QueueID: 99})
	assert.ErrorIs(t, err, repository.ErrQueueNotFound)
}

// ----- call-next selection -----

func TestCallNextOrdersPriorityThenArrival(t *testing.T) {
	fx := newFixture()
	first := fx.admit(t, 1, generalQueueID, false, false)
	second := fx.admit(t, 2, generalQueueID, false, false)
	urgent := fx.admit(t, 3, generalQueueID, true, false)

	ctx := context.Background()
	got1, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)
	got2, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)
	got3, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)

	// Priority jumps the line even though it arrived last; the rest
	// keep arrival order.
	assert.Equal(t, urgent.ID, got1.ID)
	assert.Equal(t, first.ID, got2.ID)
	assert.Equal(t, second.ID, got3.ID)
}

func TestCallNextBreaksTiesByID(t *testing.T) {
	fx := newFixture()
	// Same entered_at: admit without advancing the clock in between.
	fx.tick()
	ctx := context.Background()
	a, err := fx.d.Admit(ctx, AdmitRequest{CustomerID: 1, QueueID: generalQueueID})
	require.NoError(t, err)
	_, err = fx.d.Admit(ctx, AdmitRequest{CustomerID: 2, QueueID: generalQueueID})
	require.NoError(t, err)

	got, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestCallNextSkipsReturnVisitsInOrdinaryQueue(t *testing.T) {
	fx := newFixture()
	fx.admit(t, 1, generalQueueID, true, true) // priority return visit, still not eligible here
	regular := fx.admit(t, 2, generalQueueID, false, false)

	got, err := fx.d.CallNext(context.Background(), generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)
	assert.Equal(t, regular.ID, got.ID)

	// Only the return visit remains; the ordinary queue never reaches it.
	_, err = fx.d.CallNext(context.Background(), generalQueueID, operatorAID, "Counter 1")
	assert.ErrorIs(t, err, ErrNothingWaiting)
}

func TestCallNextReturnQueuePrefersReturnVisits(t *testing.T) {
	fx := newFixture()
	regular := fx.admit(t, 1, returnQueueID, true, false)
	ret := fx.admit(t, 2, returnQueueID, false, true)

	ctx := context.Background()
	got1, err := fx.d.CallNext(ctx, returnQueueID, operatorAID, "Room 2")
	require.NoError(t, err)
	got2, err := fx.d.CallNext(ctx, returnQueueID, operatorAID, "Room 2")
	require.NoError(t, err)

	// The return visit goes first despite the other ticket's priority
	// flag: the partition is checked before any ranking applies.
	assert.Equal(t, ret.ID, got1.ID)
	assert.Equal(t, regular.ID, got2.ID)
}

func TestCallNextEmptyQueue(t *testing.T) {
	fx := newFixture()
	_, err := fx.d.CallNext(context.Background(), generalQueueID, operatorAID, "Counter 1")
	assert.ErrorIs(t, err, ErrNothingWaiting)
}

func TestCallNextStampsCallFields(t *testing.T) {
	fx := newFixture()
	fx.admit(t, 1, generalQueueID, false, false)

	got, err := fx.d.CallNext(context.Background(), generalQueueID, operatorAID, "Counter 3")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCalled, got.Status)
	require.NotNil(t, got.CalledAt)
	require.NotNil(t, got.CounterLabel)
	require.NotNil(t, got.OperatorID)
	assert.Equal(t, "Counter 3", *got.CounterLabel)
	assert.Equal(t, uint64(operatorAID), *got.OperatorID)

	// The call is announced with sound on the panel.
	panel := fx.pub.lastPanel(t)
	assert.True(t, panel.Sound)
	require.NotNil(t, panel.Current)
	assert.Equal(t, got.ID, panel.Current.TicketID)
	assert.Contains(t, panel.Message, "Counter 3")
}

func TestCallNextRetriesAfterLostClaim(t *testing.T) {
	fx := newFixture()
	stolen := fx.admit(t, 1, generalQueueID, false, false)
	next := fx.admit(t, 2, generalQueueID, false, false)

	// Simulate a concurrent dispatcher claiming the selected ticket
	// between selection and the conditional update.  The row flips to
	// CALLED before the status check, so the first claim attempt loses.
	var steals int
	fx.tickets.beforeClaim = func(row *model.Ticket) {
		if row.ID == stolen.ID && row.Status == model.StatusWaiting {
			steals++
			at := time.Now().UTC()
			op := uint64(operatorBID)
			label := "Counter 9"
			row.Status = model.StatusCalled
			row.CalledAt = &at
			row.OperatorID = &op
			row.CounterLabel = &label
		}
	}

	got, err := fx.d.CallNext(context.Background(), generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)
	assert.Equal(t, 1, steals)
	assert.Equal(t, next.ID, got.ID)

	// The stolen ticket still belongs to the other operator.
	other, err := fx.tickets.GetByID(context.Background(), stolen.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(operatorBID), *other.OperatorID)
}

func TestCallNextUnknownOperator(t *testing.T) {
	fx := newFixture()
	fx.admit(t, 1, generalQueueID, false, false)

	_, err := fx.d.CallNext(context.Background(), generalQueueID, 99, "Counter 1")
	assert.ErrorIs(t, err, repository.ErrOperatorNotFound)
}

// ----- finalize / cancel -----

func TestFinalizeRequiresCalled(t *testing.T) {
	fx := newFixture()
	tk := fx.admit(t, 1, generalQueueID, false, false)
	ctx := context.Background()

	_, err := fx.d.Finalize(ctx, tk.ID)
	assert.ErrorIs(t, err, ErrTicketNotCalled)

	called, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)

	fx.tick()
	served, err := fx.d.Finalize(ctx, called.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusServed, served.Status)
	require.NotNil(t, served.FinishedAt)
	assert.True(t, served.FinishedAt.After(*served.CalledAt))

	// Serving twice is rejected.
	_, err = fx.d.Finalize(ctx, called.ID)
	assert.ErrorIs(t, err, ErrTicketNotCalled)
}

func TestCancelWaitingAndCalled(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	waiting := fx.admit(t, 1, generalQueueID, false, false)
	got, err := fx.d.Cancel(ctx, waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, got.Status)
	require.NotNil(t, got.FinishedAt)

	fx.admit(t, 2, generalQueueID, false, false)
	called, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)
	got, err = fx.d.Cancel(ctx, called.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, got.Status)
}

func TestCancelRejectsTerminal(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	tk := fx.admit(t, 1, generalQueueID, false, false)
	_, err := fx.d.Cancel(ctx, tk.ID)
	require.NoError(t, err)

	_, err = fx.d.Cancel(ctx, tk.ID)
	assert.ErrorIs(t, err, ErrTicketFinished)

	fx.admit(t, 2, generalQueueID, false, false)
	called, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)
	_, err = fx.d.Finalize(ctx, called.ID)
	require.NoError(t, err)

	_, err = fx.d.Cancel(ctx, called.ID)
	assert.ErrorIs(t, err, ErrTicketFinished)
}

// ----- forward -----

func TestForwardServesOriginAndAdmitsDestination(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	fx.admit(t, 1, generalQueueID, false, false)
	called, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)

	fx.tick()
	dest, err := fx.d.Forward(ctx, called.ID, AdmitRequest{QueueID: returnQueueID, ReturnVisit: true})
	require.NoError(t, err)

	assert.Equal(t, uint64(returnQueueID), dest.QueueID)
	assert.Equal(t, called.CustomerID, dest.CustomerID)
	assert.Equal(t, model.StatusWaiting, dest.Status)
	assert.True(t, dest.ReturnVisit)

	origin, err := fx.tickets.GetByID(ctx, called.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusServed, origin.Status)
}

func TestForwardRequiresCalledOrigin(t *testing.T) {
	fx := newFixture()
	tk := fx.admit(t, 1, generalQueueID, false, false)

	_, err := fx.d.Forward(context.Background(), tk.ID, AdmitRequest{QueueID: returnQueueID})
	assert.ErrorIs(t, err, ErrTicketNotCalled)
}

func TestForwardAdmissionFailureKeepsOriginServed(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	fx.admit(t, 1, generalQueueID, false, false)
	called, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)

	_, err = fx.d.Forward(ctx, called.ID, AdmitRequest{QueueID: closedQueueID})
	assert.ErrorIs(t, err, ErrQueueInactive)

	// The origin finalization is not rolled back.
	origin, err := fx.tickets.GetByID(ctx, called.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusServed, origin.Status)
}

// ----- panel & broadcasts -----

func TestPanelSnapshotShowsCurrentAndRecent(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	for i := uint64(1); i <= 4; i++ {
		fx.admit(t, i, generalQueueID, false, false)
	}
	var last *model.Ticket
	for i := 0; i < 4; i++ {
		fx.tick()
		called, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
		require.NoError(t, err)
		last = called
	}

	panel, err := fx.d.PanelSnapshot(ctx, generalQueueID)
	require.NoError(t, err)

	require.NotNil(t, panel.Current)
	assert.Equal(t, last.ID, panel.Current.TicketID)
	assert.Len(t, panel.Recent, broadcast.RecentCalls)
	assert.Equal(t, last.ID, panel.Recent[0].TicketID)
	assert.False(t, panel.Sound)
}

func TestBroadcastFailureDoesNotFailDispatch(t *testing.T) {
	fx := newFixture()
	fx.pub.err = errors.New("broker down")
	ctx := context.Background()

	tk, err := fx.d.Admit(ctx, AdmitRequest{CustomerID: 1, QueueID: generalQueueID})
	require.NoError(t, err)

	called, err := fx.d.CallNext(ctx, generalQueueID, operatorAID, "Counter 1")
	require.NoError(t, err)
	assert.Equal(t, tk.ID, called.ID)

	_, err = fx.d.Finalize(ctx, called.ID)
	assert.NoError(t, err)
}

func TestStaffUpdateCarriesSectorWaitingLists(t *testing.T) {
	fx := newFixture()
	fx.admit(t, 1, generalQueueID, false, false)
	fx.admit(t, 2, returnQueueID, false, true)

	require.NotEmpty(t, fx.pub.staffs)
	u := fx.pub.staffs[len(fx.pub.staffs)-1]
	assert.Equal(t, uint64(sectorID), u.SectorID)

	byName := map[string]int{}
	for _, q := range u.Queues {
		byName[q.QueueName] = len(q.Waiting)
	}
	assert.Equal(t, 1, byName["General"])
	assert.Equal(t, 1, byName["Medical Attendance"])
}

func TestWaitingListOrder(t *testing.T) {
	fx := newFixture()
	first := fx.admit(t, 1, generalQueueID, false, false)
	urgent := fx.admit(t, 2, generalQueueID, true, false)
	second := fx.admit(t, 3, generalQueueID, false, false)

	list, err := fx.d.WaitingList(context.Background(), generalQueueID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, urgent.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, second.ID, list[2].ID)
}
