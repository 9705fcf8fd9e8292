package domain

import (
	"strings"
	"time"
)

type StatusClass string

const (
	StatusCancelled StatusClass = "cancelled"
	StatusPending   StatusClass = "pending"
	StatusConfirmed StatusClass = "confirmed"
	StatusOther     StatusClass = "other"
)

const (
	StatusLabelConfirmed = "Confirmada"
	StatusLabelPending   = "Pendiente"
)

// ClassifyStatus maps a free-form server status label onto a badge class.
// Checks run in order so "cancelada (pendiente de reembolso)" counts as cancelled.
func ClassifyStatus(label string) StatusClass {
	s := strings.ToLower(label)
	switch {
	case strings.Contains(s, "cancel"):
		return StatusCancelled
	case strings.Contains(s, "pend"):
		return StatusPending
	case strings.Contains(s, "confirm"), strings.Contains(s, "paid"):
		return StatusConfirmed
	default:
		return StatusOther
	}
}

type Reservation struct {
	ID          string     `json:"id"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Status      string     `json:"status"`
	Amount      *float64   `json:"amount,omitempty"`
	Notes       string     `json:"notes"`
	ServiceID   string     `json:"service_id,omitempty"`
	ServiceName string     `json:"service_name,omitempty"`
}

func (r Reservation) StatusClass() StatusClass {
	return ClassifyStatus(r.Status)
}

// Dated reports whether the reservation carries a usable timestamp.
func (r Reservation) Dated() bool {
	return r.ScheduledAt != nil && !r.ScheduledAt.IsZero()
}

type Metrics struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Pending   int `json:"pending"`
}

// ComputeMetrics counts reservations per badge class. Anything neither
// confirmed nor cancelled is reported as pending.
func ComputeMetrics(items []Reservation) Metrics {
	m := Metrics{Total: len(items)}
	for _, r := range items {
		switch r.StatusClass() {
		case StatusConfirmed:
			m.Confirmed++
		case StatusCancelled:
			m.Cancelled++
		}
	}
	m.Pending = m.Total - m.Confirmed - m.Cancelled
	return m
}
