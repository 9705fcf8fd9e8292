package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusSessionExpired is the non-standard code the upstream framework returns
// for an expired CSRF/session token.
const StatusSessionExpired = 419

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrTransport    = errors.New("upstream unreachable")
	ErrDecode       = errors.New("invalid upstream response")
)

// Fallback messages shown when the upstream gives no message of its own.
const (
	MsgGeneric              = "Ocurrió un error inesperado. Intenta de nuevo."
	MsgServicesList         = "No se pudieron obtener los servicios"
	MsgServiceSave          = "No se pudo guardar el servicio"
	MsgServiceDelete        = "No se pudo eliminar el servicio"
	MsgReservationsList     = "No se pudieron obtener las reservaciones"
	MsgReservationCreate    = "No se pudo crear la reservación"
	MsgUsersList            = "No se pudieron obtener los usuarios"
	MsgLoginFailed          = "Credenciales incorrectas."
	MsgMissingToken         = "No se recibió el token de acceso."
	MsgPaymentFailed        = "No se pudo procesar el pago"
	MsgPaymentNoTransaction = "No se recibió la transacción de pago."
)

// APIError is a non-2xx answer from the upstream API.
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Operation, e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 and 419 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && IsUnauthorizedStatus(e.Status)
}

func IsUnauthorizedStatus(status int) bool {
	return status == http.StatusUnauthorized || status == StatusSessionExpired
}

// Message returns the text to show a user for err: the upstream message for
// rejections, fallback for everything else.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if fallback == "" {
		return MsgGeneric
	}
	return fallback
}
