package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/legalinmo/internal/kafka"
)

const confirmationSubject = "Tu cita ha sido confirmada"

// ReservationNotifier turns confirmed reservation events into customer emails.
type ReservationNotifier struct {
	sender Sender
}

func NewReservationNotifier(sender Sender) *ReservationNotifier {
	return &ReservationNotifier{sender: sender}
}

// Notify sends the confirmation for event. Events without an email are skipped.
func (n *ReservationNotifier) Notify(ctx context.Context, event kafka.ReservationEvent) error {
	if event.Type != kafka.EventReservationConfirmed || strings.TrimSpace(event.Email) == "" {
		return nil
	}
	return n.sender.Send(ctx, ConfirmationMessage(event))
}

// ConfirmationMessage renders the appointment time in the customer's chosen
// timezone when it is known.
func ConfirmationMessage(event kafka.ReservationEvent) Message {
	when := event.ScheduledAt
	zone := event.Timezone
	if loc, err := time.LoadLocation(zone); err == nil && zone != "" {
		when = when.In(loc)
	} else {
		zone = when.Location().String()
	}

	name := event.Name
	if name == "" {
		name = "cliente"
	}
	service := event.ServiceName
	if service == "" {
		service = "tu asesoría"
	}

	body := fmt.Sprintf(
		"Hola %s,\n\nTu cita de %s quedó agendada para el %s a las %s (%s).\nFolio de pago: %s\n\nGracias por tu confianza.",
		name, service, when.Format("02/01/2006"), when.Format("15:04"), zone, event.TransactionID,
	)
	return Message{
		To:      event.Email,
		ToName:  event.Name,
		Subject: confirmationSubject,
		Body:    body,
	}
}
