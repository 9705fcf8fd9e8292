package admin

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/calendar"
	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/validation"
	"go.uber.org/zap"
)

const (
	MsgReservationFormIncomplete = "Completa nombre, email, servicio y fecha."
	MsgReservationDateInvalid    = "La fecha de la reservación no es válida."
)

var ErrReservationNotFound = errors.New("reservation not found")

// TokenFunc reads the admin's upstream token at call time.
type TokenFunc func(ctx context.Context) (string, error)

type ReservationsBackend interface {
	ListReservations(ctx context.Context, token string) ([]domain.Reservation, error)
	CreateReservation(ctx context.Context, token string, in apiclient.ReservationInput) (string, error)
}

// ReservationForm is the back-office "new reservation" form. Date is the
// value of a datetime-local input.
type ReservationForm struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	ServiceID string `json:"service_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Comments  string `json:"comments"`
}

// CalendarView is one admin's view of the reservations calendar. It owns its
// state; results of a Load that was superseded or closed are dropped.
type CalendarView struct {
	backend ReservationsBackend
	token   TokenFunc
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger

	mu           sync.Mutex
	generation   uint64
	closed       bool
	loaded       bool
	year         int
	month        time.Month
	reservations []domain.Reservation
	selectedDay  string
	selectedID   string
}

type CalendarViewOption func(*CalendarView)

func WithClock(now func() time.Time) CalendarViewOption {
	return func(v *CalendarView) {
		v.now = now
	}
}

func WithLogger(logger *zap.Logger) CalendarViewOption {
	return func(v *CalendarView) {
		if logger != nil {
			v.logger = logger
		}
	}
}

func NewCalendarView(backend ReservationsBackend, token TokenFunc, loc *time.Location, opts ...CalendarViewOption) *CalendarView {
	if loc == nil {
		loc = time.Local
	}
	v := &CalendarView{
		backend: backend,
		token:   token,
		loc:     loc,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	today := v.now().In(loc)
	v.year, v.month = today.Year(), today.Month()
	v.selectedDay = calendar.DayKey(today, loc)
	return v
}

// Load fetches reservations and applies the default selection: today when a
// reservation falls on it, else the earliest dated reservation's day. A
// cancelled or superseded fetch returns nil and changes nothing.
func (v *CalendarView) Load(ctx context.Context) error {
	items, gen, err := v.fetch(ctx)
	if err != nil || items == nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.current(gen) {
		return nil
	}
	v.apply(items)

	todayKey := calendar.DayKey(v.now(), v.loc)
	day := ""
	if len(calendar.ForDay(items, todayKey, v.loc)) > 0 {
		day = todayKey
	} else if earliest, ok := calendar.EarliestDay(items, v.loc); ok {
		day = earliest
	}
	if day != "" {
		v.selectDayLocked(day)
	} else {
		v.selectedID = ""
	}
	return nil
}

// Reload refreshes the list without touching the current selection.
func (v *CalendarView) Reload(ctx context.Context) error {
	items, gen, err := v.fetch(ctx)
	if err != nil || items == nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current(gen) {
		v.apply(items)
	}
	return nil
}

// fetch returns nil items when the result must not apply.
func (v *CalendarView) fetch(ctx context.Context) ([]domain.Reservation, uint64, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, 0, nil
	}
	v.generation++
	gen := v.generation
	v.mu.Unlock()

	token, err := v.token(ctx)
	if err != nil {
		return nil, gen, err
	}
	items, err := v.backend.ListReservations(ctx, token)
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		v.logger.Debug("reservations fetch discarded", zap.Error(ctx.Err()))
		return nil, gen, nil
	}
	if err != nil {
		return nil, gen, err
	}
	if items == nil {
		items = []domain.Reservation{}
	}
	return items, gen, nil
}

func (v *CalendarView) current(gen uint64) bool {
	return !v.closed && gen == v.generation
}

func (v *CalendarView) apply(items []domain.Reservation) {
	v.reservations = items
	v.loaded = true
	if v.selectedID != "" && v.findLocked(v.selectedID) == nil {
		v.selectedID = ""
	}
}

// Close discards the results of any fetch still in flight.
func (v *CalendarView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.generation++
}

// SelectDay makes key the active day and selects its first reservation by
// time, or none.
func (v *CalendarView) SelectDay(key string) error {
	if _, err := calendar.ParseDayKey(key, v.loc); err != nil {
		return validation.New("day", MsgReservationDateInvalid)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selectDayLocked(key)
	return nil
}

func (v *CalendarView) selectDayLocked(key string) {
	v.selectedDay = key
	v.selectedID = ""
	if day := calendar.ForDay(v.reservations, key, v.loc); len(day) > 0 {
		v.selectedID = day[0].ID
	}
}

func (v *CalendarView) SelectReservation(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.findLocked(id) == nil {
		return ErrReservationNotFound
	}
	v.selectedID = id
	return nil
}

func (v *CalendarView) findLocked(id string) *domain.Reservation {
	for i := range v.reservations {
		if v.reservations[i].ID == id {
			return &v.reservations[i]
		}
	}
	return nil
}

// ShowMonth moves the grid to (year, month) without changing the selection.
func (v *CalendarView) ShowMonth(year int, month time.Month) error {
	if month < time.January || month > time.December || year < 1 {
		return validation.New("month", MsgReservationDateInvalid)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.year, v.month = year, month
	return nil
}

func (v *CalendarView) PrevMonth() {
	v.moveMonth(-1)
}

func (v *CalendarView) NextMonth() {
	v.moveMonth(1)
}

func (v *CalendarView) moveMonth(delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.year, v.month = calendar.AddMonths(v.year, v.month, delta)
}

// CreateReservation validates the form, submits it, reloads the list and
// selects the day of the new reservation. It returns the new id when the
// upstream reports one.
func (v *CalendarView) CreateReservation(ctx context.Context, form ReservationForm) (string, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.ServiceID = strings.TrimSpace(form.ServiceID)
	form.Date = strings.TrimSpace(form.Date)
	if err := validation.Struct(form, MsgReservationFormIncomplete); err != nil {
		return "", err
	}
	date, err := calendar.SQLFromLocalInput(form.Date)
	if err != nil {
		return "", validation.New("date", MsgReservationDateInvalid)
	}

	token, err := v.token(ctx)
	if err != nil {
		return "", err
	}
	id, err := v.backend.CreateReservation(ctx, token, apiclient.ReservationInput{
		Name:      form.Name,
		Email:     form.Email,
		ServiceID: serviceIDValue(form.ServiceID),
		Date:      date,
		Comments:  form.Comments,
	})
	if err != nil {
		return "", err
	}
	v.logger.Info("reservation created", zap.String("reservation_id", id), zap.String("date", date))

	if err := v.Reload(ctx); err != nil {
		return id, err
	}
	v.mu.Lock()
	v.selectDayLocked(date[:10])
	if id != "" && v.findLocked(id) != nil {
		v.selectedID = id
	}
	v.mu.Unlock()
	return id, nil
}

// serviceIDValue sends numeric ids as JSON numbers.
func serviceIDValue(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

type GridDay struct {
	Key            string `json:"key"`
	Day            int    `json:"day"`
	InCurrentMonth bool   `json:"in_current_month"`
	Count          int    `json:"count"`
	Today          bool   `json:"today"`
	Selected       bool   `json:"selected"`
}

type Snapshot struct {
	Loaded          bool                 `json:"loaded"`
	Year            int                  `json:"year"`
	Month           int                  `json:"month"`
	Weeks           [][]GridDay          `json:"weeks"`
	SelectedDay     string               `json:"selected_day"`
	DayReservations []domain.Reservation `json:"day_reservations"`
	Selected        *domain.Reservation  `json:"selected"`
	Metrics         domain.Metrics       `json:"metrics"`
	Groups          []calendar.DayGroup  `json:"groups"`
}

func (v *CalendarView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	counts := calendar.CountsByDay(v.reservations, v.loc)
	todayKey := calendar.DayKey(v.now(), v.loc)
	grid := calendar.BuildMonthGrid(v.year, v.month, v.loc)

	snap := Snapshot{
		Loaded:          v.loaded,
		Year:            grid.Year,
		Month:           int(grid.Month),
		SelectedDay:     v.selectedDay,
		DayReservations: calendar.ForDay(v.reservations, v.selectedDay, v.loc),
		Metrics:         domain.ComputeMetrics(v.reservations),
		Groups:          calendar.GroupByDay(v.reservations, v.loc),
	}
	for _, week := range grid.Weeks() {
		row := make([]GridDay, 0, len(week))
		for _, cell := range week {
			key := cell.Key()
			row = append(row, GridDay{
				Key:            key,
				Day:            cell.Date.Day(),
				InCurrentMonth: cell.InCurrentMonth,
				Count:          counts[key],
				Today:          key == todayKey,
				Selected:       key == v.selectedDay,
			})
		}
		snap.Weeks = append(snap.Weeks, row)
	}
	if r := v.findLocked(v.selectedID); r != nil {
		sel := *r
		snap.Selected = &sel
	}
	return snap
}
