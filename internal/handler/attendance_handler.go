package handler

import (
	"net/http"

	"event-lifecycle/internal/model"
	"event-lifecycle/internal/service"

	"github.com/gin-gonic/gin"
)

type AttendanceHandler struct {
	service service.AttendanceService
}

func NewAttendanceHandler(service service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

func (h *AttendanceHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", ActorMiddleware())
	{
		router.POST("attendance/scan", h.Scan)
		router.PUT("registrations/:id/override", h.Override)
		router.GET("events/:id/attendance", h.Dashboard)
		router.GET("events/:id/attendance/export", h.Export)
		router.GET("events/:id/attendance/audit", h.AuditLog)
	}
}

func (h *AttendanceHandler) Scan(c *gin.Context) {
	var req model.ScanRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.Scan(c, GetActor(c), req.TicketID, model.ScanMethod(req.Method))
	if err != nil {
		HandleError(c, err, "Scan")
		return
	}

	OK(c, http.StatusOK, result)
}

func (h *AttendanceHandler) Override(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.ManualOverrideRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	updated, err := h.service.Override(c, GetActor(c), id, req.MarkAttended, req.Reason)
	if err != nil {
		HandleError(c, err, "Override")
		return
	}

	OK(c, http.StatusOK, updated)
}

func (h *AttendanceHandler) Dashboard(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	stats, err := h.service.Dashboard(c, GetActor(c), id)
	if err != nil {
		HandleError(c, err, "Dashboard")
		return
	}

	OK(c, http.StatusOK, stats)
}

func (h *AttendanceHandler) Export(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Export(c, GetActor(c), id)
	if err != nil {
		HandleError(c, err, "Export")
		return
	}

	OK(c, http.StatusOK, result)
}

func (h *AttendanceHandler) AuditLog(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.AuditLog(c, GetActor(c), id)
	if err != nil {
		HandleError(c, err, "AuditLog")
		return
	}

	OK(c, http.StatusOK, entries)
}
