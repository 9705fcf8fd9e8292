package api

import (
	"context"
	"time"

	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) List(ctx context.Context) ([]domain.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Service), args.Error(1)
}

func (m *MockCatalogUseCase) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *MockCatalogUseCase) Refresh(ctx context.Context) ([]domain.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Service), args.Error(1)
}

func (m *MockCatalogUseCase) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogUseCase) Calendar(year int, month time.Month, now time.Time) booking.PickerMonth {
	return m.Called(year, month, now).Get(0).(booking.PickerMonth)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) flow(args mock.Arguments) (*booking.Flow, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Flow), args.Error(1)
}

func (m *MockBookingUseCase) Start(ctx context.Context) (*booking.Flow, error) {
	return m.flow(m.Called(ctx))
}

func (m *MockBookingUseCase) Get(ctx context.Context, id string) (*booking.Flow, error) {
	return m.flow(m.Called(ctx, id))
}

func (m *MockBookingUseCase) ChooseService(ctx context.Context, id, serviceID string) (*booking.Flow, error) {
	return m.flow(m.Called(ctx, id, serviceID))
}

func (m *MockBookingUseCase) SubmitPayment(ctx context.Context, id string, input booking.PaymentInput) (*booking.Flow, error) {
	return m.flow(m.Called(ctx, id, input))
}

func (m *MockBookingUseCase) ClosePayment(ctx context.Context, id string) (*booking.Flow, error) {
	return m.flow(m.Called(ctx, id))
}

func (m *MockBookingUseCase) SelectDate(ctx context.Context, id, day string) (*booking.Flow, error) {
	return m.flow(m.Called(ctx, id, day))
}

func (m *MockBookingUseCase) SelectSlot(ctx context.Context, id, slot string) (*booking.Flow, error) {
	return m.flow(m.Called(ctx, id, slot))
}

func (m *MockBookingUseCase) SetComments(ctx context.Context, id, comments string) (*booking.Flow, error) {
	return m.flow(m.Called(ctx, id, comments))
}

func (m *MockBookingUseCase) SetTimezone(ctx context.Context, id, timezone string) (*booking.Flow, error) {
	return m.flow(m.Called(ctx, id, timezone))
}

func (m *MockBookingUseCase) Confirm(ctx context.Context, id string, input booking.ConfirmInput) (*booking.Flow, error) {
	return m.flow(m.Called(ctx, id, input))
}

type MockSessionUseCase struct {
	mock.Mock
}

func (m *MockSessionUseCase) Login(ctx context.Context, email, password string) (*session.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionUseCase) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionUseCase) Token(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockSessionUseCase) Logout(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionUseCase) Invalidate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
