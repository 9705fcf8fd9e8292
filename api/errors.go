package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/service/admin"
	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"github.com/Domenick1991/legalinmo/internal/validation"
	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is logged when the caller went away mid-request.
const statusClientClosedRequest = 499

const msgInternal = "Error interno, intenta de nuevo."

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondError maps service and upstream errors onto the JSON error envelope.
// Upstream rejections keep the server's message; fallback is used when there
// is none.
func respondError(c *gin.Context, err error, fallback string) {
	var (
		flowErr  *booking.ValidationError
		formErr  *validation.Error
		upstream *apiclient.APIError
	)
	switch {
	case errors.Is(err, context.Canceled):
		c.Status(statusClientClosedRequest)
	case errors.As(err, &flowErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{
			"code":    "validation",
			"message": flowErr.Message,
			"field":   flowErr.Field,
		}})
	case errors.As(err, &formErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{
			"code":    "validation",
			"message": formErr.Message,
			"details": gin.H{"field_errors": formErr.Fields},
		}})
	case errors.Is(err, booking.ErrFlowNotFound),
		errors.Is(err, booking.ErrServiceNotFound),
		errors.Is(err, admin.ErrReservationNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrFlowBusy), errors.Is(err, booking.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &upstream):
		status := http.StatusUnprocessableEntity
		if upstream.Status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		writeError(c, status, "upstream_rejected", apiclient.Message(err, fallback))
	case errors.Is(err, apiclient.ErrTransport), errors.Is(err, apiclient.ErrDecode):
		_ = c.Error(err)
		writeError(c, http.StatusBadGateway, "upstream_unavailable", apiclient.MsgGeneric)
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal", msgInternal)
	}
}

// respondFlowError includes the flow so the client can render its error annotation.
func respondFlowError(c *gin.Context, flow *booking.Flow, err error) {
	var flowErr *booking.ValidationError
	if flow != nil && errors.As(err, &flowErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": gin.H{"code": "validation", "message": flowErr.Message, "field": flowErr.Field},
			"flow":  flow,
		})
		return
	}
	respondError(c, err, booking.MsgReservationError)
}
