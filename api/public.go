package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"github.com/Domenick1991/legalinmo/internal/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgContactIncomplete = "Completa nombre, email y mensaje."
	msgContactReceived   = "¡Gracias! Te contactaremos pronto."
	msgCalendarQuery     = "year y month deben ser números válidos."
)

// PublicSettings is what the landing page needs to initialize itself.
type PublicSettings struct {
	PaymentPublicKey string
	PaymentLocale    string
	TimeSlots        []string
	Timezones        []string
}

type PublicHandler struct {
	catalog  booking.CatalogUseCase
	settings PublicSettings
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewPublicHandler(catalog booking.CatalogUseCase, settings PublicSettings, loc *time.Location, logger *zap.Logger) *PublicHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{catalog: catalog, settings: settings, loc: loc, now: time.Now, logger: logger}
}

func (h *PublicHandler) Register(router *gin.RouterGroup) {
	router.GET("/config", h.config)
	router.GET("/services", h.services)
	router.GET("/calendar", h.calendar)
	router.POST("/contact", h.contact)
}

type publicConfigResponse struct {
	PaymentPublicKey string                  `json:"payment_public_key"`
	PaymentEnabled   bool                    `json:"payment_enabled"`
	PaymentLocale    string                  `json:"payment_locale"`
	TimeSlots        []string                `json:"time_slots"`
	Timezones        []string                `json:"timezones"`
	DefaultTimezone  string                  `json:"default_timezone"`
	LandingServices  []domain.LandingService `json:"landing_services"`
}

func (h *PublicHandler) config(c *gin.Context) {
	resp := publicConfigResponse{
		PaymentPublicKey: h.settings.PaymentPublicKey,
		PaymentEnabled:   h.settings.PaymentPublicKey != "",
		PaymentLocale:    h.settings.PaymentLocale,
		TimeSlots:        h.settings.TimeSlots,
		Timezones:        h.settings.Timezones,
		LandingServices:  domain.LandingServices,
	}
	if len(h.settings.Timezones) > 0 {
		resp.DefaultTimezone = h.settings.Timezones[0]
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PublicHandler) services(c *gin.Context) {
	services, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err, apiclient.MsgServicesList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": services})
}

func (h *PublicHandler) calendar(c *gin.Context) {
	now := h.now().In(h.loc)
	year, month := now.Year(), now.Month()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 {
			writeError(c, http.StatusBadRequest, "bad_request", msgCalendarQuery)
			return
		}
		year = y
	}
	if raw := c.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			writeError(c, http.StatusBadRequest, "bad_request", msgCalendarQuery)
			return
		}
		month = time.Month(m)
	}
	c.JSON(http.StatusOK, h.catalog.Calendar(year, month, now))
}

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// contact acknowledges the landing-page form. Messages are logged, not stored.
func (h *PublicHandler) contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", msgContactIncomplete)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if err := validation.Struct(req, msgContactIncomplete); err != nil {
		respondError(c, err, msgContactIncomplete)
		return
	}
	h.logger.Info("contact form received",
		zap.String("name", req.Name),
		zap.String("email", req.Email),
		zap.Int("message_length", len(req.Message)),
	)
	c.JSON(http.StatusAccepted, gin.H{"message": msgContactReceived})
}
