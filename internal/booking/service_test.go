package booking

import (
	"context"
	"errors"
	"testing"

	"barbershop/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct{ mock.Mock }

func (m *MockRepository) Create(ctx context.Context, d Draft) (*Booking, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) ListByPhone(ctx context.Context, phone string) ([]Booking, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) FindByDateTime(ctx context.Context, date, clock string, statuses []Status) ([]Booking, error) {
	args := m.Called(ctx, date, clock, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) FindByDate(ctx context.Context, date string, statuses []Status) ([]Booking, error) {
	args := m.Called(ctx, date, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) FindByPaymentReference(ctx context.Context, ref string) (*Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id string, u Update) (*Booking, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) ConfirmPayment(ctx context.Context, id string) (*Booking, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*Booking), args.Bool(1), args.Error(2)
}

func (m *MockRepository) MarkPaymentFailed(ctx context.Context, id string) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		Name:    "Abebe Kebede",
		Phone:   "0911111111",
		Service: "Fade Cut",
		Date:    "2025-06-10",
		Time:    "03:00",
	}
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*CreateBookingRequest)
		setupMocks func(*MockRepository)
		wantErr    error
		wantField  string
		wantTime   string
	}{
		{
			name: "successful booking",
			setupMocks: func(r *MockRepository) {
				r.On("FindByDateTime", mock.Anything, "2025-06-10", "03:00", SlotHoldingStatuses).Return([]Booking{}, nil)
				r.On("Create", mock.Anything, mock.MatchedBy(func(d Draft) bool {
					return d.Time == "03:00" && d.Amount == 0 && d.PaymentReference == ""
				})).Return(&Booking{ID: "abc123", Date: "2025-06-10", Time: "03:00", Status: StatusPending, PaymentStatus: PaymentPending}, nil)
			},
			wantTime: "03:00",
		},
		{
			name:   "trims fields and normalizes time",
			mutate: func(r *CreateBookingRequest) { r.Name = "  Abebe  "; r.Time = " 3:00 " },
			setupMocks: func(r *MockRepository) {
				r.On("FindByDateTime", mock.Anything, "2025-06-10", "03:00", SlotHoldingStatuses).Return([]Booking{}, nil)
				r.On("Create", mock.Anything, mock.MatchedBy(func(d Draft) bool {
					return d.Name == "Abebe" && d.Time == "03:00"
				})).Return(&Booking{ID: "abc123", Time: "03:00"}, nil)
			},
			wantTime: "03:00",
		},
		{
			name:      "missing name",
			mutate:    func(r *CreateBookingRequest) { r.Name = "   " },
			wantField: "name",
		},
		{
			name:      "missing phone reported before bad time",
			mutate:    func(r *CreateBookingRequest) { r.Phone = ""; r.Time = "25:99" },
			wantField: "phone",
		},
		{
			name:      "malformed date",
			mutate:    func(r *CreateBookingRequest) { r.Date = "10/06/2025" },
			wantField: "date",
		},
		{
			name:      "malformed time",
			mutate:    func(r *CreateBookingRequest) { r.Time = "noon" },
			wantField: "time",
		},
		{
			name:    "before opening",
			mutate:  func(r *CreateBookingRequest) { r.Time = "01:59" },
			wantErr: ErrOutOfHours,
		},
		{
			name:    "at closing",
			mutate:  func(r *CreateBookingRequest) { r.Time = "14:00" },
			wantErr: ErrOutOfHours,
		},
		{
			name:   "last minute before closing",
			mutate: func(r *CreateBookingRequest) { r.Time = "13:59" },
			setupMocks: func(r *MockRepository) {
				r.On("FindByDateTime", mock.Anything, "2025-06-10", "13:59", SlotHoldingStatuses).Return([]Booking{}, nil)
				r.On("Create", mock.Anything, mock.Anything).Return(&Booking{ID: "abc123", Time: "13:59"}, nil)
			},
			wantTime: "13:59",
		},
		{
			name:   "slot held by paid booking",
			mutate: func(r *CreateBookingRequest) { r.Time = "02:00" },
			setupMocks: func(r *MockRepository) {
				r.On("FindByDateTime", mock.Anything, "2025-06-10", "02:00", SlotHoldingStatuses).
					Return([]Booking{{ID: "other", Status: StatusPaid}}, nil)
			},
			wantErr: ErrSlotTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.setupMocks != nil {
				tt.setupMocks(repo)
			}
			svc := NewService(repo, schedule.DefaultConfig())

			req := validRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			b, err := svc.Create(context.Background(), req)

			switch {
			case tt.wantField != "":
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
				assert.Nil(t, b)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, b)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantTime, b.Time)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_OutOfHoursMessage(t *testing.T) {
	svc := NewService(new(MockRepository), schedule.DefaultConfig())

	req := validRequest()
	req.Time = "15:00"
	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, "Bookings are only available from 2:00 AM to 2:00 PM", err.Error())
}

func TestService_CreateForPaymentCarriesAmountAndReference(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByDateTime", mock.Anything, "2025-06-10", "03:00", SlotHoldingStatuses).Return([]Booking{}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(d Draft) bool {
		return d.Amount == 350 && d.PaymentReference == "BOOKING-1-abc"
	})).Return(&Booking{ID: "abc123"}, nil)

	svc := NewService(repo, schedule.DefaultConfig())
	b, err := svc.CreateForPayment(context.Background(), validRequest(), 350, "BOOKING-1-abc")

	require.NoError(t, err)
	assert.Equal(t, "abc123", b.ID)
	repo.AssertExpectations(t)
}

func TestService_CreateStoreFailure(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByDateTime", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	svc := NewService(repo, schedule.DefaultConfig())
	_, err := svc.Create(context.Background(), validRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "check slot")
}

func TestService_AvailableSlots(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByDate", mock.Anything, "2025-06-10", SlotHoldingStatuses).Return([]Booking{
		{ID: "a", Time: "02:00", Status: StatusPaid},
		{ID: "b", Time: "03:30", Status: StatusCompleted},
	}, nil)

	svc := NewService(repo, schedule.DefaultConfig())
	avail, err := svc.AvailableSlots(context.Background(), "2025-06-10")

	require.NoError(t, err)
	assert.False(t, avail.Stale)
	assert.Len(t, avail.Slots, 13)
	for _, s := range avail.Slots {
		assert.NotEqual(t, "02:00", s.Time24)
		assert.NotEqual(t, "03:30", s.Time24)
	}
	assert.Equal(t, "02:45", avail.Slots[0].Time24)
}

func TestService_AvailableSlotsFailsOpen(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByDate", mock.Anything, "2025-06-10", SlotHoldingStatuses).Return(nil, errors.New("timeout"))

	svc := NewService(repo, schedule.DefaultConfig())
	avail, err := svc.AvailableSlots(context.Background(), "2025-06-10")

	require.NoError(t, err)
	assert.True(t, avail.Stale)
	assert.Equal(t, schedule.DefaultConfig().Slots(), avail.Slots)
}

func TestService_AvailableSlotsRejectsBadDate(t *testing.T) {
	svc := NewService(new(MockRepository), schedule.DefaultConfig())

	_, err := svc.AvailableSlots(context.Background(), "tomorrow")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)
}

func TestService_ListBookings(t *testing.T) {
	repo := new(MockRepository)
	repo.On("List", mock.Anything).Return([]Booking{{ID: "a"}, {ID: "b"}}, nil)
	repo.On("ListByPhone", mock.Anything, "0911111111").Return([]Booking{{ID: "a"}}, nil)

	svc := NewService(repo, schedule.DefaultConfig())

	all, err := svc.ListBookings(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListBookings(context.Background(), "0911111111")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		target  Status
		update  bool
		wantErr error
	}{
		{name: "paid to completed", current: StatusPaid, target: StatusCompleted, update: true},
		{name: "pending to completed", current: StatusPending, target: StatusCompleted, wantErr: ErrInvalidTransition},
		{name: "completed again", current: StatusCompleted, target: StatusCompleted},
		{name: "pending to cancelled", current: StatusPending, target: StatusCancelled, update: true},
		{name: "paid to cancelled", current: StatusPaid, target: StatusCancelled, update: true},
		{name: "cancelled again", current: StatusCancelled, target: StatusCancelled},
		{name: "back to pending", current: StatusPaid, target: StatusPending, wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("GetByID", mock.Anything, "abc").Return(&Booking{ID: "abc", Status: tt.current}, nil)
			if tt.update {
				target := tt.target
				repo.On("Update", mock.Anything, "abc", Update{Status: &target}).
					Return(&Booking{ID: "abc", Status: tt.target}, nil)
			}

			svc := NewService(repo, schedule.DefaultConfig())
			b, err := svc.UpdateStatus(context.Background(), "abc", tt.target)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, b.Status)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_UpdateStatusNotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, ErrNotFound)

	svc := NewService(repo, schedule.DefaultConfig())
	_, err := svc.UpdateStatus(context.Background(), "missing", StatusCancelled)

	assert.ErrorIs(t, err, ErrNotFound)
}

// Two customers race for one slot. Both pass intake while the slot is free;
// only the first confirmation may hold it.
func TestService_ConcurrentIntakeOnlyOneHoldsSlot(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, schedule.DefaultConfig())
	ctx := context.Background()

	first, err := svc.CreateForPayment(ctx, validRequest(), 300, "ref-1")
	require.NoError(t, err)
	second, err := svc.CreateForPayment(ctx, validRequest(), 300, "ref-2")
	require.NoError(t, err)

	_, _, err = repo.ConfirmPayment(ctx, first.ID)
	require.NoError(t, err)

	_, _, err = repo.ConfirmPayment(ctx, second.ID)
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = svc.Create(ctx, validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)

	avail, err := svc.AvailableSlots(ctx, "2025-06-10")
	require.NoError(t, err)
	assert.Len(t, avail.Slots, 15)
}
