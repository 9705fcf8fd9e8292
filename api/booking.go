package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CookieSettings names a cookie and how long it lives.
type CookieSettings struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func (s CookieSettings) set(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, value, int(s.TTL.Seconds()), "/", "", s.Secure, true)
}

func (s CookieSettings) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}

type BookingHandler struct {
	service       booking.BookingUseCase
	sessions      session.SessionUseCase
	flowCookie    CookieSettings
	sessionCookie string
	logger        *zap.Logger
}

// NewBookingHandler serves the public booking flow. When the visitor also
// holds an admin session, confirm submits with that session's token and user.
func NewBookingHandler(service booking.BookingUseCase, sessions session.SessionUseCase, flowCookie CookieSettings, sessionCookie string, logger *zap.Logger) *BookingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingHandler{
		service:       service,
		sessions:      sessions,
		flowCookie:    flowCookie,
		sessionCookie: sessionCookie,
		logger:        logger,
	}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.start)
	router.GET("/current", h.current)
	router.GET("/:id", h.get)
	router.POST("/:id/service", h.chooseService)
	router.POST("/:id/payment", h.submitPayment)
	router.POST("/:id/payment/close", h.closePayment)
	router.POST("/:id/date", h.selectDate)
	router.POST("/:id/slot", h.selectSlot)
	router.POST("/:id/comments", h.setComments)
	router.POST("/:id/timezone", h.setTimezone)
	router.POST("/:id/confirm", h.confirm)
}

type chooseServiceRequest struct {
	ServiceID string `json:"service_id"`
}

type selectDateRequest struct {
	Date string `json:"date"`
}

type selectSlotRequest struct {
	Slot string `json:"slot"`
}

type commentsRequest struct {
	Comments string `json:"comments"`
}

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

func (h *BookingHandler) start(c *gin.Context) {
	flow, err := h.service.Start(c.Request.Context())
	if err != nil {
		respondError(c, err, booking.MsgReservationError)
		return
	}
	h.flowCookie.set(c, flow.ID)
	c.JSON(http.StatusCreated, flow)
}

func (h *BookingHandler) get(c *gin.Context) {
	flow, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, booking.MsgReservationError)
		return
	}
	c.JSON(http.StatusOK, flow)
}

// current resumes the flow named by the visitor's flow cookie.
func (h *BookingHandler) current(c *gin.Context) {
	id, err := c.Cookie(h.flowCookie.Name)
	if err != nil || id == "" {
		respondError(c, booking.ErrFlowNotFound, booking.MsgReservationError)
		return
	}
	flow, err := h.service.Get(c.Request.Context(), id)
	if errors.Is(err, booking.ErrFlowNotFound) {
		h.flowCookie.clear(c)
	}
	if err != nil {
		respondError(c, err, booking.MsgReservationError)
		return
	}
	c.JSON(http.StatusOK, flow)
}

func (h *BookingHandler) chooseService(c *gin.Context) {
	var req chooseServiceRequest
	if !bindJSON(c, &req) {
		return
	}
	h.reply(c)(h.service.ChooseService(c.Request.Context(), c.Param("id"), req.ServiceID))
}

func (h *BookingHandler) submitPayment(c *gin.Context) {
	var req booking.PaymentInput
	if !bindJSON(c, &req) {
		return
	}
	h.reply(c)(h.service.SubmitPayment(c.Request.Context(), c.Param("id"), req))
}

func (h *BookingHandler) closePayment(c *gin.Context) {
	h.reply(c)(h.service.ClosePayment(c.Request.Context(), c.Param("id")))
}

func (h *BookingHandler) selectDate(c *gin.Context) {
	var req selectDateRequest
	if !bindJSON(c, &req) {
		return
	}
	h.reply(c)(h.service.SelectDate(c.Request.Context(), c.Param("id"), req.Date))
}

func (h *BookingHandler) selectSlot(c *gin.Context) {
	var req selectSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	h.reply(c)(h.service.SelectSlot(c.Request.Context(), c.Param("id"), req.Slot))
}

func (h *BookingHandler) setComments(c *gin.Context) {
	var req commentsRequest
	if !bindJSON(c, &req) {
		return
	}
	h.reply(c)(h.service.SetComments(c.Request.Context(), c.Param("id"), req.Comments))
}

func (h *BookingHandler) setTimezone(c *gin.Context) {
	var req timezoneRequest
	if !bindJSON(c, &req) {
		return
	}
	h.reply(c)(h.service.SetTimezone(c.Request.Context(), c.Param("id"), req.Timezone))
}

func (h *BookingHandler) confirm(c *gin.Context) {
	h.reply(c)(h.service.Confirm(c.Request.Context(), c.Param("id"), h.confirmInput(c)))
}

// confirmInput reads the optional admin session at call time.
func (h *BookingHandler) confirmInput(c *gin.Context) booking.ConfirmInput {
	if h.sessions == nil {
		return booking.ConfirmInput{}
	}
	id, err := c.Cookie(h.sessionCookie)
	if err != nil || id == "" {
		return booking.ConfirmInput{}
	}
	s, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		return booking.ConfirmInput{}
	}
	input := booking.ConfirmInput{Token: s.Token}
	if s.User != nil {
		input.UserID = s.User.ID
	}
	return input
}

func (h *BookingHandler) reply(c *gin.Context) func(*booking.Flow, error) {
	return func(flow *booking.Flow, err error) {
		if err != nil {
			respondFlowError(c, flow, err)
			return
		}
		c.JSON(http.StatusOK, flow)
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	return true
}
