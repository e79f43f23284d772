package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"teacherattend/internal/attendance"
	"teacherattend/internal/auth"
)

// Checker reports the health of a backing dependency.
type Checker func(ctx context.Context) bool

type Handler struct {
	svc    *attendance.Service
	health map[string]Checker
	log    zerolog.Logger
}

func New(svc *attendance.Service, health map[string]Checker, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, health: health, log: log}
}

// Register mounts the attendance API on r. authn must put the caller's
// identity on the request context; limit may be nil.
func (h *Handler) Register(r gin.IRouter, authn gin.HandlerFunc, limit gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1", authn)
	if limit != nil {
		v1.Use(limit)
	}
	v1.GET("/biometric/status", h.BiometricStatus)

	teacher := v1.Group("/attendance", auth.RequireRole(auth.RoleTeacher))
	teacher.POST("/mark", h.Mark)
	teacher.GET("/today", h.Today)

	v1.GET("/attendance", auth.RequireRole(auth.RoleAdmin), h.ListByDate)
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.health {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// ---------- Mark ----------

// Mark runs the biometric attendance workflow for the caller.
func (h *Handler) Mark(c *gin.Context) {
	rec, err := h.svc.MarkForCurrent(c.Request.Context())
	if err != nil {
		if errors.Is(err, attendance.ErrCancelled) {
			c.JSON(http.StatusOK, gin.H{"marked": false, "outcome": attendance.KindCancelled.String()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": true, "outcome": "marked", "attendance": rec})
}

// ---------- Queries ----------

func (h *Handler) Today(c *gin.Context) {
	id, _ := auth.FromContext(c.Request.Context())
	rec, err := h.svc.GetTodayAttendance(c.Request.Context(), id.UID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"marked": false, "date": h.svc.Today()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": true, "attendance": rec})
}

func (h *Handler) ListByDate(c *gin.Context) {
	date := c.DefaultQuery("date", h.svc.Today())
	records, err := h.svc.GetAttendanceByDate(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "records": records})
}

func (h *Handler) BiometricStatus(c *gin.Context) {
	caps, err := h.svc.CheckCapabilities(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"has_hardware":    caps.HasHardware,
		"is_enrolled":     caps.IsEnrolled,
		"supported_types": caps.TypeNames(),
		"biometric_type":  caps.Label(),
		"security_level":  caps.SecurityLevel.String(),
		"ready":           caps.HasHardware && caps.IsEnrolled,
	})
}

// ---------- Errors ----------

var kindStatus = map[attendance.Kind]int{
	attendance.KindInvalidRequest:        http.StatusBadRequest,
	attendance.KindInvalidDate:           http.StatusBadRequest,
	attendance.KindIdentity:              http.StatusUnauthorized,
	attendance.KindAuthenticationFailed:  http.StatusUnauthorized,
	attendance.KindFallbackNotAllowed:    http.StatusForbidden,
	attendance.KindAlreadyMarked:         http.StatusConflict,
	attendance.KindMarkInProgress:        http.StatusConflict,
	attendance.KindHardwareUnavailable:   http.StatusPreconditionFailed,
	attendance.KindNotEnrolled:           http.StatusPreconditionFailed,
	attendance.KindCapabilityCheckFailed: http.StatusServiceUnavailable,
}

func statusFor(kind attendance.Kind) int {
	if s, ok := kindStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	kind := attendance.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	body := gin.H{"outcome": kind.String(), "error": kind.Message()}
	var e *attendance.Error
	if errors.As(err, &e) && e.Reason != "" && kind == attendance.KindAuthenticationFailed {
		body["reason"] = e.Reason
	}
	c.JSON(status, body)
}
