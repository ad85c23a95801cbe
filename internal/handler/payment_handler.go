package handler

import (
	"net/http"

	"event-lifecycle/internal/model"
	"event-lifecycle/internal/service"
	apperrors "event-lifecycle/pkg/app_errors"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", ActorMiddleware())
	{
		router.PUT("registrations/:id/proof", h.UploadProof)
		router.GET("events/:id/payments", h.ListPendingPayments)
		router.PUT("registrations/:id/approve", h.ApprovePayment)
		router.PUT("registrations/:id/reject", h.RejectPayment)
		router.PUT("registrations/:id/reissue-qr", h.ReissueQR)
	}
}

func (h *PaymentHandler) UploadProof(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UploadProofRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	updated, err := h.service.UploadProof(c, GetActor(c), id, req.ProofRef)
	if err != nil {
		HandleError(c, err, "UploadProof")
		return
	}

	OK(c, http.StatusOK, updated)
}

func (h *PaymentHandler) ListPendingPayments(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	var status *model.RegistrationStatus
	if raw := c.Query("status"); raw != "" {
		s := model.RegistrationStatus(raw)
		if !s.IsValid() {
			HandleError(c, apperrors.ErrInvalidInput, "ListPendingPayments")
			return
		}
		status = &s
	}

	regs, err := h.service.ListPending(c, GetActor(c), id, status)
	if err != nil {
		HandleError(c, err, "ListPendingPayments")
		return
	}

	OK(c, http.StatusOK, regs)
}

func (h *PaymentHandler) ApprovePayment(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.ReviewPaymentRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	approved, err := h.service.Approve(c, GetActor(c), id, req.Notes)
	if err != nil {
		HandleError(c, err, "ApprovePayment")
		return
	}

	OK(c, http.StatusOK, approved)
}

func (h *PaymentHandler) RejectPayment(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.ReviewPaymentRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	rejected, err := h.service.Reject(c, GetActor(c), id, req.Notes)
	if err != nil {
		HandleError(c, err, "RejectPayment")
		return
	}

	OK(c, http.StatusOK, rejected)
}

func (h *PaymentHandler) ReissueQR(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	updated, err := h.service.ReissueQR(c, GetActor(c), id)
	if err != nil {
		HandleError(c, err, "ReissueQR")
		return
	}

	OK(c, http.StatusOK, updated)
}
