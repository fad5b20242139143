package handler

import (
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/application"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/mapview"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/stream"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/domain"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GeolocationRequest carries the browser's geolocation outcome: a position,
// or an error message when the user denied or the device failed.
type GeolocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	Error     string   `json:"error"`
}

// SearchRequest is a destination search submitted with the Enter key.
type SearchRequest struct {
	Term string `json:"term"`
}

// ClickRequest is a click on the map.
type ClickRequest struct {
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
}

// SearchResponse returns the accepted match, if any, with the new session state.
type SearchResponse struct {
	Location *booking.Location      `json:"location"`
	Session  application.SessionDTO `json:"session"`
}

type sceneProvider interface {
	Scene() mapview.Scene
}

// SessionHandler handles HTTP requests for booking sessions.
type SessionHandler struct {
	sessions *application.SessionManager
	hub      *stream.Hub
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *application.SessionManager, hub *stream.Hub) *SessionHandler {
	return &SessionHandler{sessions: sessions, hub: hub}
}

// RegisterRoutes registers all session routes on the given router group.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/api/v1/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.CloseSession)
		sessions.POST("/:id/geolocation", h.ReportGeolocation)
		sessions.POST("/:id/search", h.Search)
		sessions.POST("/:id/click", h.Click)
		sessions.POST("/:id/confirm", h.Confirm)
		sessions.POST("/:id/cancel", h.Cancel)
		sessions.GET("/:id/map", h.GetMap)
		sessions.GET("/:id/events", h.Events)
	}
}

// CreateSession handles POST /api/v1/sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	flow, err := h.sessions.Create()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, flow.State())
}

// GetSession handles GET /api/v1/sessions/:id.
func (h *SessionHandler) GetSession(c *gin.Context) {
	flow, ok := h.lookup(c)
	if !ok {
		return
	}

	response.Success(c, flow.State())
}

// CloseSession handles DELETE /api/v1/sessions/:id.
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.Close(id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "closed": true})
}

// ReportGeolocation handles POST /api/v1/sessions/:id/geolocation.
func (h *SessionHandler) ReportGeolocation(c *gin.Context) {
	flow, ok := h.lookup(c)
	if !ok {
		return
	}

	var req GeolocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.Error != "" || req.Latitude == nil || req.Longitude == nil {
		reason := req.Error
		if reason == "" {
			reason = "position unavailable"
		}
		if err := flow.PickupFailed(reason); err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, flow.State())
		return
	}

	pickup := booking.Coordinate{Longitude: *req.Longitude, Latitude: *req.Latitude}
	if err := flow.PickupLocated(pickup); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, flow.State())
}

// Search handles POST /api/v1/sessions/:id/search.
func (h *SessionHandler) Search(c *gin.Context) {
	flow, ok := h.lookup(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	location, err := flow.SubmitSearch(c.Request.Context(), req.Term)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, SearchResponse{Location: location, Session: flow.State()})
}

// Click handles POST /api/v1/sessions/:id/click.
func (h *SessionHandler) Click(c *gin.Context) {
	flow, ok := h.lookup(c)
	if !ok {
		return
	}

	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := flow.Click(booking.Coordinate{Longitude: *req.Longitude, Latitude: *req.Latitude}); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, flow.State())
}

// Confirm handles POST /api/v1/sessions/:id/confirm.
func (h *SessionHandler) Confirm(c *gin.Context) {
	flow, ok := h.lookup(c)
	if !ok {
		return
	}

	result, err := flow.Confirm(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Cancel handles POST /api/v1/sessions/:id/cancel.
func (h *SessionHandler) Cancel(c *gin.Context) {
	flow, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := flow.Cancel(); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, flow.State())
}

// GetMap handles GET /api/v1/sessions/:id/map.
func (h *SessionHandler) GetMap(c *gin.Context) {
	flow, ok := h.lookup(c)
	if !ok {
		return
	}

	sp, ok := flow.View().(sceneProvider)
	if !ok {
		response.Error(c, domain.NewNotFoundError("map scene", flow.ID()))
		return
	}

	response.Success(c, sp.Scene())
}

// Events handles GET /api/v1/sessions/:id/events.
func (h *SessionHandler) Events(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	if _, err := h.sessions.Get(id); err != nil {
		response.Error(c, err)
		return
	}

	h.hub.Stream(c, id)
}

func (h *SessionHandler) lookup(c *gin.Context) (*application.BookingFlow, bool) {
	id, ok := parseSessionID(c)
	if !ok {
		return nil, false
	}

	flow, err := h.sessions.Get(id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return flow, true
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}
