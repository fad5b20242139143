// Package response writes the JSON envelope used by every HTTP handler.
package response

import (
	"errors"
	"net/http"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/domain"
	"github.com/gin-gonic/gin"
)

// Envelope is the body shape of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{Error: message})
}

// Error maps a domain error to its status code and writes it.
// Unknown errors become 500 without leaking their message.
func Error(c *gin.Context, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Envelope{Error: message})
}

// StatusFor returns the HTTP status code for err.
func StatusFor(err error) int {
	var validationErr *domain.ValidationError
	var notFoundErr *domain.NotFoundError
	var stateErr *domain.InvalidStateError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &stateErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
