package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/google/uuid"
)

// The upstream API is not consistent about field names. Every decoder below
// lists its candidate paths in precedence order; the first usable value wins.
var (
	tokenPaths         = []string{"access_token", "token", "data.access_token", "data.token"}
	loginUserPaths     = []string{"user", "data.user"}
	transactionIDPaths = []string{"transaction_id", "id", "data.transaction_id", "data.id"}

	reservationTimePaths    = []string{"scheduled_at", "datetime", "date", "created_at"}
	reservationNamePaths    = []string{"user.name", "name", "full_name"}
	reservationEmailPaths   = []string{"user.email", "email"}
	reservationPhonePaths   = []string{"user.phone", "phone"}
	reservationAmountPaths  = []string{"amount", "price"}
	reservationNotesPaths   = []string{"notes", "note", "comments"}
	reservationServiceID    = []string{"service.id", "service_id"}
	reservationServiceNames = []string{"service.name", "service.title", "service", "service_name"}

	serviceNamePaths  = []string{"name", "title"}
	servicePricePaths = []string{"price", "amount"}

	userIDPaths      = []string{"id", "user_id"}
	userNamePaths    = []string{"name", "full_name", "username"}
	userCreatedPaths = []string{"created_at", "registered_at"}
	userAvatarPaths  = []string{"avatar", "photo", "profile_photo_url"}
)

const unnamedCustomer = "Sin nombre"

var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

var errNotObject = errors.New("json value is not an object")

type object map[string]any

func decodeValue(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeObject(body []byte) (object, error) {
	v, err := decodeValue(body)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return object(m), nil
}

// decodeList accepts a top-level array or an object with a "data" array.
// Any other valid JSON shape is an empty list.
func decodeList(body []byte) ([]object, error) {
	v, err := decodeValue(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var raw []any
	switch t := v.(type) {
	case []any:
		raw = t
	case map[string]any:
		raw, _ = t["data"].([]any)
	}

	items := make([]object, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			items = append(items, object(m))
		}
	}
	return items, nil
}

// get walks a dotted path through nested objects.
func (o object) get(path string) (any, bool) {
	var cur any = map[string]any(o)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// str returns the first path holding a non-empty string or a number.
func (o object) str(paths ...string) string {
	for _, p := range paths {
		v, ok := o.get(p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case json.Number:
			if t.String() != "0" {
				return t.String()
			}
		}
	}
	return ""
}

// id is like str but keeps zero, since an id of 0 is still an id.
func (o object) id(paths ...string) string {
	for _, p := range paths {
		v, ok := o.get(p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case json.Number:
			return t.String()
		}
	}
	return ""
}

// number returns the first path holding a number or a numeric string.
func (o object) number(paths ...string) *float64 {
	for _, p := range paths {
		v, ok := o.get(p)
		if !ok {
			continue
		}
		var raw string
		switch t := v.(type) {
		case json.Number:
			raw = t.String()
		case string:
			raw = strings.TrimSpace(t)
		default:
			continue
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return &f
		}
	}
	return nil
}

func (o object) truthy(path string) bool {
	v, ok := o.get(path)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "0" && s != "false"
	default:
		return true
	}
}

func (o object) obj(paths ...string) object {
	for _, p := range paths {
		if v, ok := o.get(p); ok {
			if m, ok := v.(map[string]any); ok {
				return object(m)
			}
		}
	}
	return nil
}

func parseTimestamp(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t
		}
	}
	return nil
}

func decodeReservation(o object, loc *time.Location) domain.Reservation {
	rawTime := o.str(reservationTimePaths...)
	r := domain.Reservation{
		ID:          o.id("id"),
		ScheduledAt: parseTimestamp(rawTime, loc),
		Name:        o.str(reservationNamePaths...),
		Email:       o.str(reservationEmailPaths...),
		Phone:       o.str(reservationPhonePaths...),
		Status:      o.str("status"),
		Amount:      o.number(reservationAmountPaths...),
		Notes:       o.str(reservationNotesPaths...),
		ServiceID:   o.id(reservationServiceID...),
		ServiceName: o.str(reservationServiceNames...),
	}
	if r.Name == "" {
		r.Name = unnamedCustomer
	}
	if r.Status == "" {
		r.Status = domain.StatusLabelPending
		if o.truthy("paid") {
			r.Status = domain.StatusLabelConfirmed
		}
	}
	if r.ID == "" {
		who := o.str("email", "name")
		if who == "" {
			who = uuid.NewString()
		}
		r.ID = rawTime + "-" + who
	}
	return r
}

func decodeService(o object) domain.Service {
	return domain.Service{
		ID:          o.id("id"),
		Name:        o.str(serviceNamePaths...),
		Description: o.str("description"),
		Price:       o.number(servicePricePaths...),
	}
}

func decodeUser(o object, loc *time.Location) domain.User {
	u := domain.User{
		ID:        o.id(userIDPaths...),
		Name:      o.str(userNamePaths...),
		Email:     o.str("email"),
		Phone:     o.str("phone"),
		Status:    o.str("status"),
		Avatar:    o.str(userAvatarPaths...),
		CreatedAt: parseTimestamp(o.str(userCreatedPaths...), loc),
	}
	if u.Status == "" {
		u.Status = domain.UserStatusInactive
		if o.truthy("active") {
			u.Status = domain.UserStatusActive
		}
	}
	return u
}
