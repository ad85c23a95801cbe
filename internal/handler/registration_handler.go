package handler

import (
	"net/http"

	"event-lifecycle/internal/model"
	"event-lifecycle/internal/service"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	service service.RegistrationService
}

func NewRegistrationHandler(service service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

func (h *RegistrationHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", ActorMiddleware())
	{
		router.POST("registrations", h.CreateRegistration)
		router.GET("registrations", h.ListMyRegistrations)
		router.GET("registrations/:id", h.GetRegistration)
		router.PUT("registrations/:id/cancel", h.CancelRegistration)
	}
}

func (h *RegistrationHandler) CreateRegistration(c *gin.Context) {
	var req model.CreateRegistrationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.Register(c, GetActor(c), req)
	if err != nil {
		HandleError(c, err, "CreateRegistration")
		return
	}

	OK(c, http.StatusCreated, created)
}

func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	reg, err := h.service.GetByRegistrationID(c, GetActor(c), id)
	if err != nil {
		HandleError(c, err, "GetRegistration")
		return
	}

	OK(c, http.StatusOK, reg)
}

func (h *RegistrationHandler) ListMyRegistrations(c *gin.Context) {
	regs, err := h.service.ListMine(c, GetActor(c))
	if err != nil {
		HandleError(c, err, "ListMyRegistrations")
		return
	}

	OK(c, http.StatusOK, regs)
}

func (h *RegistrationHandler) CancelRegistration(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.CancelRegistrationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	cancelled, err := h.service.Cancel(c, GetActor(c), id, req.Reason)
	if err != nil {
		HandleError(c, err, "CancelRegistration")
		return
	}

	OK(c, http.StatusOK, cancelled)
}
