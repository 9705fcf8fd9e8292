package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/calendar"
	"github.com/Domenick1991/legalinmo/internal/kafka"
	"github.com/Domenick1991/legalinmo/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	Start(ctx context.Context) (*Flow, error)
	Get(ctx context.Context, id string) (*Flow, error)
	ChooseService(ctx context.Context, id, serviceID string) (*Flow, error)
	SubmitPayment(ctx context.Context, id string, input PaymentInput) (*Flow, error)
	ClosePayment(ctx context.Context, id string) (*Flow, error)
	SelectDate(ctx context.Context, id, day string) (*Flow, error)
	SelectSlot(ctx context.Context, id, slot string) (*Flow, error)
	SetComments(ctx context.Context, id, comments string) (*Flow, error)
	SetTimezone(ctx context.Context, id, timezone string) (*Flow, error)
	Confirm(ctx context.Context, id string, input ConfirmInput) (*Flow, error)
}

// FlowStore keeps flows between requests. GetFlow returns ErrFlowNotFound for
// unknown or expired ids.
//
// AcquireFlowLock returns a token identifying the holder; ReleaseFlowLock only
// removes the lock while that token still owns it.
type FlowStore interface {
	GetFlow(ctx context.Context, id string) (*Flow, error)
	SaveFlow(ctx context.Context, flow *Flow, ttl time.Duration) error
	AcquireFlowLock(ctx context.Context, id string, ttl time.Duration) (string, bool, error)
	ReleaseFlowLock(ctx context.Context, id, token string) error
}

type Upstream interface {
	CreatePaymentIntent(ctx context.Context, token string, in apiclient.PaymentIntentInput) (*apiclient.PaymentIntentResult, error)
	CreateReservation(ctx context.Context, token string, in apiclient.ReservationInput) (string, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// PaymentInput carries the customer's details and the card widget's tokenized result.
type PaymentInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	CardToken       string `json:"token"`
	PaymentMethodID string `json:"payment_method_id"`
	IssuerID        string `json:"issuer_id"`
	Installments    int    `json:"installments"`
}

// ConfirmInput identifies the signed-in user, if any, submitting the reservation.
type ConfirmInput struct {
	Token  string
	UserID string
}

type FlowService struct {
	store              FlowStore
	upstream           Upstream
	catalog            CatalogUseCase
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	flowTTL            time.Duration
	lockTTL            time.Duration

	loc             *time.Location
	slots           []string
	timezones       []string
	defaultTimezone string
	paymentEnabled  bool
	metrics         *metrics.BookingMetrics
	logger          *zap.Logger
	now             func() time.Time
}

type FlowServiceOption func(*FlowService)

func WithNotificationsTopic(topic string) FlowServiceOption {
	return func(s *FlowService) {
		s.notificationsTopic = topic
	}
}

func WithLocation(loc *time.Location) FlowServiceOption {
	return func(s *FlowService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithTimeSlots(slots []string) FlowServiceOption {
	return func(s *FlowService) {
		s.slots = slots
	}
}

// WithTimezones sets the display zones a customer may pick; the first is the default.
func WithTimezones(zones []string) FlowServiceOption {
	return func(s *FlowService) {
		s.timezones = zones
		if len(zones) > 0 {
			s.defaultTimezone = zones[0]
		}
	}
}

// WithPaymentEnabled reports whether a payment public key is configured.
func WithPaymentEnabled(enabled bool) FlowServiceOption {
	return func(s *FlowService) {
		s.paymentEnabled = enabled
	}
}

func WithMetrics(m *metrics.BookingMetrics) FlowServiceOption {
	return func(s *FlowService) {
		s.metrics = m
	}
}

func WithLogger(logger *zap.Logger) FlowServiceOption {
	return func(s *FlowService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) FlowServiceOption {
	return func(s *FlowService) {
		s.now = now
	}
}

func NewFlowService(
	store FlowStore,
	upstream Upstream,
	catalog CatalogUseCase,
	producer Producer,
	bookingTopic string,
	flowTTL, lockTTL time.Duration,
	opts ...FlowServiceOption,
) *FlowService {
	service := &FlowService{
		store:          store,
		upstream:       upstream,
		catalog:        catalog,
		producer:       producer,
		bookingTopic:   bookingTopic,
		flowTTL:        flowTTL,
		lockTTL:        lockTTL,
		loc:            time.Local,
		paymentEnabled: true,
		logger:         zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *FlowService) Start(ctx context.Context) (*Flow, error) {
	flow := NewFlow(uuid.NewString(), s.defaultTimezone, s.now())
	if err := s.store.SaveFlow(ctx, flow, s.flowTTL); err != nil {
		return nil, fmt.Errorf("save flow: %w", err)
	}
	s.logger.Debug("booking flow started", zap.String("flow_id", flow.ID))
	return flow, nil
}

// Get reads a flow. A submission older than the lock TTL is reported as back in
// date selection; the stored copy is repaired by the next transition.
func (s *FlowService) Get(ctx context.Context, id string) (*Flow, error) {
	flow, err := s.store.GetFlow(ctx, id)
	if err != nil {
		return nil, err
	}
	s.abandonStaleSubmit(flow)
	return flow, nil
}

// abandonStaleSubmit releases a flow left in Submitting by a request that
// died or could not save its result.
func (s *FlowService) abandonStaleSubmit(f *Flow) {
	if f.AbandonStaleSubmit(s.now().Add(-s.lockTTL)) {
		s.logger.Warn("abandoned stale submission", zap.String("flow_id", f.ID))
	}
}

func (s *FlowService) ChooseService(ctx context.Context, id, serviceID string) (*Flow, error) {
	return s.update(ctx, id, func(ctx context.Context, f *Flow) error {
		serviceID = strings.TrimSpace(serviceID)
		if serviceID == "" {
			return f.fail(invalid("service", MsgSelectServiceFirst))
		}
		svc, err := s.catalog.GetByID(ctx, serviceID)
		if errors.Is(err, ErrServiceNotFound) {
			return f.fail(invalid("service", MsgSelectServiceFirst))
		}
		if err != nil {
			return err
		}
		return f.ChooseService(*svc)
	})
}

func (s *FlowService) ClosePayment(ctx context.Context, id string) (*Flow, error) {
	return s.update(ctx, id, func(_ context.Context, f *Flow) error {
		return f.ClosePayment()
	})
}

// SubmitPayment charges the chosen service. An upstream failure is recorded on
// the flow, which stays awaiting payment; it is not returned as an error.
func (s *FlowService) SubmitPayment(ctx context.Context, id string, input PaymentInput) (*Flow, error) {
	return s.update(ctx, id, func(ctx context.Context, f *Flow) error {
		st, ok := f.State.(AwaitingPayment)
		if !ok {
			return fmt.Errorf("%w: pay from %s", ErrInvalidTransition, f.Stage())
		}
		if !s.paymentEnabled {
			return f.fail(invalid("payment", MsgPaymentUnavailable))
		}
		name, email := strings.TrimSpace(input.Name), strings.TrimSpace(input.Email)
		if name == "" || email == "" {
			return f.fail(invalid("customer", MsgCustomerRequired))
		}
		f.Customer = Customer{Name: name, Email: email}

		res, err := s.upstream.CreatePaymentIntent(ctx, "", apiclient.PaymentIntentInput{
			Email:           email,
			ServiceID:       st.Service.ID,
			Name:            name,
			CardToken:       input.CardToken,
			PaymentMethodID: input.PaymentMethodID,
			IssuerID:        input.IssuerID,
			Installments:    input.Installments,
			Amount:          st.Service.EffectivePrice(),
		})
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			s.logger.Info("payment rejected", zap.String("flow_id", f.ID), zap.Error(err))
			return f.PaymentFailed(apiclient.Message(err, MsgPaymentError))
		}
		return f.PaymentSucceeded(res.TransactionID)
	})
}

func (s *FlowService) SelectDate(ctx context.Context, id, day string) (*Flow, error) {
	return s.update(ctx, id, func(_ context.Context, f *Flow) error {
		if _, ok := f.State.(SelectingDateTime); !ok {
			return fmt.Errorf("%w: select date in %s", ErrInvalidTransition, f.Stage())
		}
		if !s.dateSelectable(day) {
			return f.fail(invalid("date", MsgDateNotAvailable))
		}
		return f.SelectDate(day)
	})
}

// dateSelectable applies the picker's disabled-date rule to a day key viewed
// in its own month.
func (s *FlowService) dateSelectable(day string) bool {
	d, err := calendar.ParseDayKey(day, s.loc)
	if err != nil {
		return false
	}
	cell := calendar.Cell{Date: d, InCurrentMonth: true}
	return calendar.Selectable(cell, s.now())
}

func (s *FlowService) SelectSlot(ctx context.Context, id, slot string) (*Flow, error) {
	return s.update(ctx, id, func(_ context.Context, f *Flow) error {
		if _, ok := f.State.(SelectingDateTime); !ok {
			return fmt.Errorf("%w: select slot in %s", ErrInvalidTransition, f.Stage())
		}
		if !slices.Contains(s.slots, slot) {
			return f.fail(invalid("slot", MsgInvalidTimeSlot))
		}
		return f.SelectSlot(slot)
	})
}

func (s *FlowService) SetComments(ctx context.Context, id, comments string) (*Flow, error) {
	return s.update(ctx, id, func(_ context.Context, f *Flow) error {
		return f.SetComments(strings.TrimSpace(comments))
	})
}

// SetTimezone changes the zone used to display the confirmed time. It does not
// move the reservation, which is always booked in the business location.
func (s *FlowService) SetTimezone(ctx context.Context, id, timezone string) (*Flow, error) {
	return s.update(ctx, id, func(_ context.Context, f *Flow) error {
		if !slices.Contains(s.timezones, timezone) {
			return f.fail(invalid("timezone", MsgTimezoneNotSupported))
		}
		f.Timezone = timezone
		return nil
	})
}

// Confirm submits the reservation. Guard failures come back as *ValidationError
// with the flow left in SelectingDateTime; upstream rejections are recorded on
// the flow, which also returns to SelectingDateTime.
func (s *FlowService) Confirm(ctx context.Context, id string, input ConfirmInput) (*Flow, error) {
	var confirmed bool
	flow, err := s.update(ctx, id, func(ctx context.Context, f *Flow) error {
		scheduledAt, err := f.BeginSubmit(s.loc)
		if err != nil {
			return err
		}
		st := f.State.(Submitting)
		f.UpdatedAt = s.now()
		if err := s.store.SaveFlow(ctx, f, s.flowTTL); err != nil {
			_ = f.SubmitFailed("")
			return fmt.Errorf("save flow: %w", err)
		}

		reservationID, err := s.upstream.CreateReservation(ctx, input.Token, apiclient.ReservationInput{
			UserID:        input.UserID,
			ServiceID:     st.Selection.Service.ID,
			Date:          calendar.FormatSQLDateTime(scheduledAt),
			TransactionID: st.Selection.TransactionID,
			Comments:      f.Comments,
		})
		if errors.Is(err, context.Canceled) {
			_ = f.SubmitFailed("")
			return err
		}
		if err != nil {
			s.logger.Info("reservation rejected", zap.String("flow_id", f.ID), zap.Error(err))
			return f.SubmitFailed(apiclient.Message(err, MsgReservationError))
		}
		confirmed = true
		return f.SubmitSucceeded(reservationID)
	})
	if err != nil || !confirmed {
		return flow, err
	}

	s.metrics.ObserveConfirmed()
	if err := s.publish(context.WithoutCancel(ctx), kafka.EventReservationConfirmed, flow); err != nil {
		s.logger.Warn("failed to publish reservation event", zap.String("flow_id", flow.ID), zap.Error(err))
	}
	return flow, nil
}

// update runs fn on the flow under its lock and saves the result. The flow is
// saved even when fn reports a *ValidationError so the annotation is visible
// to the next read; any other error leaves the stored flow as it was, except
// that a cancelled request persists whatever rollback fn applied. A failed save
// of a newly confirmed flow is logged and the confirmed flow is still returned.
func (s *FlowService) update(ctx context.Context, id string, fn func(context.Context, *Flow) error) (*Flow, error) {
	token, ok, err := s.store.AcquireFlowLock(ctx, id, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock flow: %w", err)
	}
	if !ok {
		return nil, ErrFlowBusy
	}
	defer func() {
		if err := s.store.ReleaseFlowLock(context.WithoutCancel(ctx), id, token); err != nil {
			s.logger.Warn("failed to release flow lock", zap.String("flow_id", id), zap.Error(err))
		}
	}()

	flow, err := s.store.GetFlow(ctx, id)
	if err != nil {
		return nil, err
	}

	s.abandonStaleSubmit(flow)
	from := flow.Stage()
	fnErr := fn(ctx, flow)

	var vErr *ValidationError
	switch {
	case fnErr == nil, errors.As(fnErr, &vErr), errors.Is(fnErr, context.Canceled):
	default:
		s.metrics.ObserveTransition(string(from), string(flow.Stage()), "error")
		return nil, fnErr
	}

	flow.UpdatedAt = s.now()
	if err := s.store.SaveFlow(context.WithoutCancel(ctx), flow, s.flowTTL); err != nil {
		if fnErr != nil || from == StageConfirmed || !flow.Confirmed() {
			return nil, fmt.Errorf("save flow: %w", err)
		}
		// The reservation exists upstream; the stored Submitting copy goes stale
		// after the lock TTL.
		s.logger.Error("confirmed flow not saved",
			zap.String("flow_id", id),
			zap.String("reservation_id", flow.State.(Confirmed).ReservationID),
			zap.Error(err),
		)
	}
	s.metrics.ObserveTransition(string(from), string(flow.Stage()), outcomeOf(fnErr, flow))
	return flow, fnErr
}

func outcomeOf(err error, f *Flow) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case err != nil:
		return "invalid"
	case f.Error != "":
		return "rejected"
	default:
		return "ok"
	}
}

func (s *FlowService) publish(ctx context.Context, eventType string, flow *Flow) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	st, ok := flow.State.(Confirmed)
	if !ok {
		return nil
	}
	event := kafka.ReservationEvent{
		Type:          eventType,
		FlowID:        flow.ID,
		ReservationID: st.ReservationID,
		ServiceID:     st.Service.ID,
		ServiceName:   st.Service.Name,
		Email:         flow.Customer.Email,
		Name:          flow.Customer.Name,
		ScheduledAt:   st.ScheduledAt,
		TransactionID: st.TransactionID,
		Timezone:      flow.Timezone,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, flow.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, flow.ID, event)
	}
	return nil
}

var _ BookingUseCase = (*FlowService)(nil)
