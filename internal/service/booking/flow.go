package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/legalinmo/internal/domain"
)

type Stage string

const (
	StageSelectingService  Stage = "selecting_service"
	StageAwaitingPayment   Stage = "awaiting_payment"
	StageSelectingDateTime Stage = "selecting_date_time"
	StageSubmitting        Stage = "submitting"
	StageConfirmed         Stage = "confirmed"
)

const (
	MsgSelectServiceFirst   = "select a service first"
	MsgTransactionNotFound  = "payment transaction not found"
	MsgSelectDateAndTime    = "select a date and time"
	MsgInvalidTimeSlot      = "time slot is not available"
	MsgDateNotAvailable     = "date is not available"
	MsgTimezoneNotSupported = "timezone is not supported"
	MsgCustomerRequired     = "Completa tu nombre y email."
	MsgPaymentUnavailable   = "payment provider not configured"
	MsgPaymentError         = "Error al procesar el pago"
	MsgReservationError     = "Error al crear la reservación"
)

var (
	ErrInvalidTransition = errors.New("invalid flow transition")
	ErrFlowNotFound      = errors.New("booking flow not found")
	ErrFlowBusy          = errors.New("booking flow is busy")
	ErrServiceNotFound   = errors.New("service not found")
)

// ValidationError is a local input problem. It never reaches the upstream API.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// State is one of SelectingService, AwaitingPayment, SelectingDateTime,
// Submitting or Confirmed.
type State interface {
	Stage() Stage
	isState()
}

type SelectingService struct{}

// AwaitingPayment holds the service being paid for. CaptureOpen mirrors the
// card widget being shown to the customer.
type AwaitingPayment struct {
	Service     domain.Service
	CaptureOpen bool
}

// SelectingDateTime is entered after a successful payment. Date is a
// YYYY-MM-DD day key.
type SelectingDateTime struct {
	Service       *domain.Service
	TransactionID string
	Date          string
	Slot          string
}

type Submitting struct {
	Selection   SelectingDateTime
	ScheduledAt time.Time
}

type Confirmed struct {
	Service       domain.Service
	TransactionID string
	ScheduledAt   time.Time
	ReservationID string
}

func (SelectingService) Stage() Stage  { return StageSelectingService }
func (AwaitingPayment) Stage() Stage   { return StageAwaitingPayment }
func (SelectingDateTime) Stage() Stage { return StageSelectingDateTime }
func (Submitting) Stage() Stage        { return StageSubmitting }
func (Confirmed) Stage() Stage         { return StageConfirmed }

func (SelectingService) isState()  {}
func (AwaitingPayment) isState()   {}
func (SelectingDateTime) isState() {}
func (Submitting) isState()        {}
func (Confirmed) isState()         {}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Flow is one customer's pass through the public booking sequence. Error is an
// annotation on the current state and is cleared by the next successful transition.
type Flow struct {
	ID        string
	State     State
	Customer  Customer
	Comments  string
	Timezone  string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewFlow(id, timezone string, now time.Time) *Flow {
	return &Flow{
		ID:        id,
		State:     SelectingService{},
		Timezone:  timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (f *Flow) Stage() Stage {
	if f.State == nil {
		return StageSelectingService
	}
	return f.State.Stage()
}

// Confirmed reports whether the flow reached its terminal state.
func (f *Flow) Confirmed() bool {
	return f.Stage() == StageConfirmed
}

func (f *Flow) fail(err *ValidationError) error {
	f.Error = err.Message
	return err
}

func (f *Flow) transition(to State) {
	f.State = to
	f.Error = ""
}

// ChooseService opens payment capture for svc. Choosing again while awaiting
// payment replaces the service.
func (f *Flow) ChooseService(svc domain.Service) error {
	switch f.State.(type) {
	case SelectingService, AwaitingPayment:
	default:
		return fmt.Errorf("%w: choose service from %s", ErrInvalidTransition, f.Stage())
	}
	if svc.ID == "" {
		return f.fail(invalid("service", MsgSelectServiceFirst))
	}
	f.transition(AwaitingPayment{Service: svc, CaptureOpen: true})
	return nil
}

// ClosePayment dismisses payment capture without paying.
func (f *Flow) ClosePayment() error {
	if _, ok := f.State.(AwaitingPayment); !ok {
		return fmt.Errorf("%w: close payment from %s", ErrInvalidTransition, f.Stage())
	}
	f.transition(SelectingService{})
	return nil
}

func (f *Flow) PaymentSucceeded(transactionID string) error {
	st, ok := f.State.(AwaitingPayment)
	if !ok {
		return fmt.Errorf("%w: payment result in %s", ErrInvalidTransition, f.Stage())
	}
	if transactionID == "" {
		return f.fail(invalid("transaction_id", MsgTransactionNotFound))
	}
	svc := st.Service
	f.transition(SelectingDateTime{Service: &svc, TransactionID: transactionID})
	return nil
}

// PaymentFailed keeps the flow awaiting payment with capture still open.
func (f *Flow) PaymentFailed(message string) error {
	st, ok := f.State.(AwaitingPayment)
	if !ok {
		return fmt.Errorf("%w: payment result in %s", ErrInvalidTransition, f.Stage())
	}
	if message == "" {
		message = MsgPaymentError
	}
	st.CaptureOpen = true
	f.State = st
	f.Error = message
	return nil
}

func (f *Flow) SelectDate(dayKey string) error {
	st, ok := f.State.(SelectingDateTime)
	if !ok {
		return fmt.Errorf("%w: select date in %s", ErrInvalidTransition, f.Stage())
	}
	st.Date = dayKey
	f.transition(st)
	return nil
}

func (f *Flow) SelectSlot(slot string) error {
	st, ok := f.State.(SelectingDateTime)
	if !ok {
		return fmt.Errorf("%w: select slot in %s", ErrInvalidTransition, f.Stage())
	}
	st.Slot = slot
	f.transition(st)
	return nil
}

func (f *Flow) SetComments(comments string) error {
	switch f.State.(type) {
	case Submitting, Confirmed:
		return fmt.Errorf("%w: edit comments in %s", ErrInvalidTransition, f.Stage())
	}
	f.Comments = comments
	return nil
}

// BeginSubmit runs the confirm guards and moves to Submitting. The selected
// day is resolved in loc.
func (f *Flow) BeginSubmit(loc *time.Location) (time.Time, error) {
	st, ok := f.State.(SelectingDateTime)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, f.Stage())
	}
	if st.Service == nil {
		return time.Time{}, f.fail(invalid("service", MsgSelectServiceFirst))
	}
	if st.TransactionID == "" {
		return time.Time{}, f.fail(invalid("transaction_id", MsgTransactionNotFound))
	}
	if st.Date == "" || st.Slot == "" {
		return time.Time{}, f.fail(invalid("date", MsgSelectDateAndTime))
	}
	day, err := time.ParseInLocation("2006-01-02", st.Date, loc)
	if err != nil {
		return time.Time{}, f.fail(invalid("date", MsgDateNotAvailable))
	}
	scheduledAt, ok := CombineDateTime(day, st.Slot)
	if !ok {
		return time.Time{}, f.fail(invalid("slot", MsgInvalidTimeSlot))
	}

	f.transition(Submitting{Selection: st, ScheduledAt: scheduledAt})
	return scheduledAt, nil
}

func (f *Flow) SubmitSucceeded(reservationID string) error {
	st, ok := f.State.(Submitting)
	if !ok {
		return fmt.Errorf("%w: submission result in %s", ErrInvalidTransition, f.Stage())
	}
	f.transition(Confirmed{
		Service:       *st.Selection.Service,
		TransactionID: st.Selection.TransactionID,
		ScheduledAt:   st.ScheduledAt,
		ReservationID: reservationID,
	})
	return nil
}

// SubmitFailed returns to date selection with the selection kept. An empty
// message means the submission was abandoned and leaves no annotation.
func (f *Flow) SubmitFailed(message string) error {
	st, ok := f.State.(Submitting)
	if !ok {
		return fmt.Errorf("%w: submission result in %s", ErrInvalidTransition, f.Stage())
	}
	f.State = st.Selection
	f.Error = message
	return nil
}

// AbandonStaleSubmit returns a submission last touched before cutoff to date
// selection, keeping the selection. It reports whether the flow changed.
func (f *Flow) AbandonStaleSubmit(cutoff time.Time) bool {
	st, ok := f.State.(Submitting)
	if !ok || !f.UpdatedAt.Before(cutoff) {
		return false
	}
	f.State = st.Selection
	f.Error = ""
	return true
}

type flowJSON struct {
	ID            string          `json:"id"`
	Stage         Stage           `json:"stage"`
	Service       *domain.Service `json:"service,omitempty"`
	CaptureOpen   bool            `json:"payment_capture_open"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Date          string          `json:"date,omitempty"`
	Slot          string          `json:"slot,omitempty"`
	ScheduledAt   *time.Time      `json:"scheduled_at,omitempty"`
	ReservationID string          `json:"reservation_id,omitempty"`
	Confirmed     bool            `json:"confirmed"`
	Customer      Customer        `json:"customer"`
	Comments      string          `json:"comments"`
	Timezone      string          `json:"timezone"`
	Error         string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (f Flow) MarshalJSON() ([]byte, error) {
	out := flowJSON{
		ID:        f.ID,
		Stage:     f.Stage(),
		Confirmed: f.Confirmed(),
		Customer:  f.Customer,
		Comments:  f.Comments,
		Timezone:  f.Timezone,
		Error:     f.Error,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	switch st := f.State.(type) {
	case AwaitingPayment:
		svc := st.Service
		out.Service = &svc
		out.CaptureOpen = st.CaptureOpen
	case SelectingDateTime:
		fillSelection(&out, st)
	case Submitting:
		fillSelection(&out, st.Selection)
		at := st.ScheduledAt
		out.ScheduledAt = &at
	case Confirmed:
		svc := st.Service
		at := st.ScheduledAt
		out.Service = &svc
		out.TransactionID = st.TransactionID
		out.ScheduledAt = &at
		out.ReservationID = st.ReservationID
	}
	return json.Marshal(out)
}

func fillSelection(out *flowJSON, st SelectingDateTime) {
	out.Service = st.Service
	out.TransactionID = st.TransactionID
	out.Date = st.Date
	out.Slot = st.Slot
}

func (f *Flow) UnmarshalJSON(data []byte) error {
	var in flowJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	selection := SelectingDateTime{
		Service:       in.Service,
		TransactionID: in.TransactionID,
		Date:          in.Date,
		Slot:          in.Slot,
	}
	switch in.Stage {
	case StageSelectingService, "":
		f.State = SelectingService{}
	case StageAwaitingPayment:
		if in.Service == nil {
			return fmt.Errorf("flow %s: awaiting payment without service", in.ID)
		}
		f.State = AwaitingPayment{Service: *in.Service, CaptureOpen: in.CaptureOpen}
	case StageSelectingDateTime:
		f.State = selection
	case StageSubmitting:
		if in.ScheduledAt == nil || in.Service == nil {
			return fmt.Errorf("flow %s: submitting without schedule", in.ID)
		}
		f.State = Submitting{Selection: selection, ScheduledAt: *in.ScheduledAt}
	case StageConfirmed:
		if in.ScheduledAt == nil || in.Service == nil {
			return fmt.Errorf("flow %s: confirmed without schedule", in.ID)
		}
		f.State = Confirmed{
			Service:       *in.Service,
			TransactionID: in.TransactionID,
			ScheduledAt:   *in.ScheduledAt,
			ReservationID: in.ReservationID,
		}
	default:
		return fmt.Errorf("flow %s: unknown stage %q", in.ID, in.Stage)
	}

	f.ID = in.ID
	f.Customer = in.Customer
	f.Comments = in.Comments
	f.Timezone = in.Timezone
	f.Error = in.Error
	f.CreatedAt = in.CreatedAt
	f.UpdatedAt = in.UpdatedAt
	return nil
}
