package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Domenick1991/legalinmo/internal/domain"
)

// ReservationInput is the body of POST /reservations. The public flow sends
// user_id and transaction_id; the back-office sends name and email instead.
// ServiceID is a string or a number depending on the caller.
type ReservationInput struct {
	UserID        string `json:"user_id,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	ServiceID     any    `json:"service_id,omitempty"`
	Date          string `json:"date"`
	TransactionID string `json:"transaction_id,omitempty"`
	Comments      string `json:"comments"`
}

func (c *Client) ListReservations(ctx context.Context, token string) ([]domain.Reservation, error) {
	resp, err := c.do(ctx, request{
		operation: "list_reservations",
		method:    http.MethodGet,
		path:      "/reservations",
		token:     token,
		fallback:  MsgReservationsList,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeList(resp.body)
	if err != nil {
		return nil, fmt.Errorf("list_reservations: %w", err)
	}
	reservations := make([]domain.Reservation, 0, len(items))
	for _, item := range items {
		reservations = append(reservations, decodeReservation(item, c.loc))
	}
	return reservations, nil
}

// CreateReservation returns the created reservation id when the upstream acknowledges with one.
func (c *Client) CreateReservation(ctx context.Context, token string, in ReservationInput) (string, error) {
	resp, err := c.do(ctx, request{
		operation: "create_reservation",
		method:    http.MethodPost,
		path:      "/reservations",
		token:     token,
		body:      in,
		fallback:  MsgReservationCreate,
	})
	if err != nil {
		return "", err
	}

	obj, err := decodeObject(resp.body)
	if err != nil {
		return "", nil
	}
	return obj.id("id", "data.id", "reservation.id"), nil
}
