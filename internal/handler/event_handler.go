package handler

import (
	"net/http"

	"event-lifecycle/internal/model"
	"event-lifecycle/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", ActorMiddleware())
	{
		router.POST("events", h.CreateEvent)
		router.GET("events", h.ListEvents)
		router.GET("events/:id", h.GetEvent)
		router.PUT("events/:id/publish", h.PublishEvent)
	}
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req model.CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.Create(c, GetActor(c), req)
	if err != nil {
		HandleError(c, err, "CreateEvent")
		return
	}

	OK(c, http.StatusCreated, created)
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		HandleError(c, err, "ListEvents")
		return
	}

	OK(c, http.StatusOK, events)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	event, err := h.service.GetByEventID(c, id)
	if err != nil {
		HandleError(c, err, "GetEvent")
		return
	}

	OK(c, http.StatusOK, event)
}

func (h *EventHandler) PublishEvent(c *gin.Context) {
	id, ok := ParamUUID(c, "id")
	if !ok {
		return
	}

	published, err := h.service.Publish(c, GetActor(c), id)
	if err != nil {
		HandleError(c, err, "PublishEvent")
		return
	}

	OK(c, http.StatusOK, published)
}
