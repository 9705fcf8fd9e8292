package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/middleware"
	"github.com/Domenick1991/legalinmo/internal/service/admin"
	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	sessions     session.SessionUseCase
	reservations admin.ReservationsBackend
	services     admin.ServicesUseCase
	users        admin.UsersUseCase
	cookieName   string
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

func NewAdminHandler(
	sessions session.SessionUseCase,
	reservations admin.ReservationsBackend,
	services admin.ServicesUseCase,
	users admin.UsersUseCase,
	cookieName string,
	loc *time.Location,
	logger *zap.Logger,
) *AdminHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		sessions:     sessions,
		reservations: reservations,
		services:     services,
		users:        users,
		cookieName:   cookieName,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// Register mounts the back-office routes behind the session guard.
func (h *AdminHandler) Register(router *gin.RouterGroup) {
	group := router.Group("", middleware.RequireSession(h.sessions, h.cookieName, h.logger))
	group.GET("/me", h.me)
	group.GET("/calendar", h.calendar)
	group.POST("/calendar/reservations", h.createReservation)
	group.GET("/services", h.listServices)
	group.POST("/services", h.createService)
	group.PUT("/services/:id", h.updateService)
	group.DELETE("/services/:id", h.deleteService)
	group.GET("/users", h.listUsers)
}

// fail ends the admin session when the upstream no longer accepts its token;
// every other error goes through the usual mapping.
func (h *AdminHandler) fail(c *gin.Context, err error, fallback string) {
	if errors.Is(err, apiclient.ErrUnauthorized) || errors.Is(err, session.ErrNotFound) {
		if s := middleware.CurrentSession(c); s != nil {
			if err := h.sessions.Invalidate(context.WithoutCancel(c.Request.Context()), s.ID); err != nil {
				h.logger.Warn("failed to invalidate session", zap.Error(err))
			}
		}
		h.logger.Info("admin session rejected upstream", zap.String("path", c.FullPath()))
		middleware.AbortUnauthorized(c, h.cookieName)
		return
	}
	respondError(c, err, fallback)
}

func (h *AdminHandler) tokenFunc(c *gin.Context) admin.TokenFunc {
	s := middleware.CurrentSession(c)
	return func(ctx context.Context) (string, error) {
		if s == nil {
			return "", session.ErrNotFound
		}
		return h.sessions.Token(ctx, s.ID)
	}
}

func (h *AdminHandler) token(c *gin.Context) (string, bool) {
	token, err := h.tokenFunc(c)(c.Request.Context())
	if err != nil {
		h.fail(c, err, apiclient.MsgGeneric)
		return "", false
	}
	return token, true
}

func (h *AdminHandler) me(c *gin.Context) {
	s := middleware.CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{"user": s.User, "expires_at": s.ExpiresAt})
}

func (h *AdminHandler) newView(c *gin.Context) *admin.CalendarView {
	return admin.NewCalendarView(h.reservations, h.tokenFunc(c), h.loc,
		admin.WithClock(h.now),
		admin.WithLogger(h.logger),
	)
}

// calendar loads the reservations and applies the optional year, month, day
// and reservation query parameters on top of the default selection.
func (h *AdminHandler) calendar(c *gin.Context) {
	view := h.newView(c)
	defer view.Close()

	if err := view.Load(c.Request.Context()); err != nil {
		h.fail(c, err, apiclient.MsgReservationsList)
		return
	}
	if y, m := c.Query("year"), c.Query("month"); y != "" && m != "" {
		year, errY := strconv.Atoi(y)
		month, errM := strconv.Atoi(m)
		if errY != nil || errM != nil {
			writeError(c, http.StatusBadRequest, "bad_request", msgCalendarQuery)
			return
		}
		if err := view.ShowMonth(year, time.Month(month)); err != nil {
			respondError(c, err, apiclient.MsgGeneric)
			return
		}
	}
	if day := c.Query("day"); day != "" {
		if err := view.SelectDay(day); err != nil {
			respondError(c, err, apiclient.MsgGeneric)
			return
		}
	}
	if id := c.Query("reservation"); id != "" {
		if err := view.SelectReservation(id); err != nil {
			respondError(c, err, apiclient.MsgGeneric)
			return
		}
	}
	c.JSON(http.StatusOK, view.Snapshot())
}

func (h *AdminHandler) createReservation(c *gin.Context) {
	var form admin.ReservationForm
	if !bindJSON(c, &form) {
		return
	}
	view := h.newView(c)
	defer view.Close()

	id, err := view.CreateReservation(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err, apiclient.MsgReservationCreate)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "calendar": view.Snapshot()})
}

func (h *AdminHandler) listServices(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	services, err := h.services.List(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err, apiclient.MsgServicesList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": services})
}

func (h *AdminHandler) createService(c *gin.Context) {
	var form admin.ServiceForm
	if !bindJSON(c, &form) {
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}
	svc, err := h.services.Create(c.Request.Context(), token, form)
	if err != nil {
		h.fail(c, err, apiclient.MsgServiceSave)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func (h *AdminHandler) updateService(c *gin.Context) {
	var form admin.ServiceForm
	if !bindJSON(c, &form) {
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}
	svc, err := h.services.Update(c.Request.Context(), token, c.Param("id"), form)
	if err != nil {
		h.fail(c, err, apiclient.MsgServiceSave)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *AdminHandler) deleteService(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	if err := h.services.Delete(c.Request.Context(), token, c.Param("id")); err != nil {
		h.fail(c, err, apiclient.MsgServiceDelete)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	users, err := h.users.List(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err, apiclient.MsgUsersList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}
