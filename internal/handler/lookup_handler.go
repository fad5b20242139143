package handler

import (
	"strconv"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/application"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/middleware"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/response"
	"github.com/gin-gonic/gin"
)

// ReverseGeocodeResponse is the place name for a coordinate. Name is empty
// when nothing was found.
type ReverseGeocodeResponse struct {
	Coordinate booking.Coordinate `json:"coordinate"`
	Name       string             `json:"name"`
}

// LookupHandler exposes the geocoding resolver without a session.
type LookupHandler struct {
	resolver application.LocationResolver
	limiter  *middleware.IPRateLimiter
}

// NewLookupHandler creates a new LookupHandler. A nil limiter disables rate limiting.
func NewLookupHandler(resolver application.LocationResolver, limiter *middleware.IPRateLimiter) *LookupHandler {
	return &LookupHandler{resolver: resolver, limiter: limiter}
}

// RegisterRoutes registers the lookup routes on the given router group.
func (h *LookupHandler) RegisterRoutes(r *gin.RouterGroup) {
	lookup := r.Group("/api/v1")
	if h.limiter != nil {
		lookup.Use(h.limiter.RateLimit())
	}
	{
		lookup.GET("/geocode", h.Geocode)
		lookup.GET("/reverse-geocode", h.ReverseGeocode)
	}
}

// Geocode handles GET /api/v1/geocode?q=.
func (h *LookupHandler) Geocode(c *gin.Context) {
	locations := h.resolver.Geocode(c.Request.Context(), c.Query("q"))
	if locations == nil {
		locations = []booking.Location{}
	}

	response.Success(c, locations)
}

// ReverseGeocode handles GET /api/v1/reverse-geocode?lon=&lat=.
func (h *LookupHandler) ReverseGeocode(c *gin.Context) {
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		response.BadRequest(c, "invalid lon")
		return
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.BadRequest(c, "invalid lat")
		return
	}

	coord := booking.Coordinate{Longitude: lon, Latitude: lat}
	if err := coord.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	name := h.resolver.Reverse(c.Request.Context(), coord)
	response.Success(c, ReverseGeocodeResponse{Coordinate: coord, Name: name})
}
