// Package events publishes booking lifecycle events.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Source identifies this service in CloudEvents.
	Source = "service-ride-booking"

	// BookingConfirmed is emitted once per confirmed ride.
	BookingConfirmed = "booking.confirmed"
)

// BookingConfirmedEvent is the payload of a BookingConfirmed CloudEvent.
type BookingConfirmedEvent struct {
	BookingNumber string             `json:"booking_number"`
	SessionID     uuid.UUID          `json:"session_id"`
	Pickup        booking.Coordinate `json:"pickup"`
	PickupLabel   string             `json:"pickup_label,omitempty"`
	Dropoff       booking.Coordinate `json:"dropoff"`
	DropoffLabel  string             `json:"dropoff_label,omitempty"`
	DistanceKm    float64            `json:"distance_km"`
	DurationMin   float64            `json:"duration_min"`
	FareAmount    float64            `json:"fare_amount"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// NewBookingConfirmedEvent builds the event payload for c.
func NewBookingConfirmedEvent(c booking.Confirmation) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingNumber: c.BookingNumber,
		SessionID:     c.SessionID,
		Pickup:        c.Pickup,
		PickupLabel:   c.PickupLabel,
		Dropoff:       c.Dropoff,
		DropoffLabel:  c.DropoffLabel,
		DistanceKm:    c.DistanceKm,
		DurationMin:   c.DurationMin,
		FareAmount:    c.Fare.Amount,
		OccurredAt:    c.ConfirmedAt,
	}
}

// EventWriter is the subset of kafka.Producer used here.
type EventWriter interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// KafkaPublisher publishes booking events as CloudEvents.
type KafkaPublisher struct {
	writer EventWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher creates a KafkaPublisher writing to topic.
func NewKafkaPublisher(writer EventWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// PublishConfirmed emits a BookingConfirmed event keyed by session.
func (p *KafkaPublisher) PublishConfirmed(ctx context.Context, c booking.Confirmation) error {
	ce, err := kafka.NewCloudEvent(Source, BookingConfirmed, NewBookingConfirmedEvent(c))
	if err != nil {
		return fmt.Errorf("failed to create cloud event: %w", err)
	}
	ce.Subject = c.SessionID.String()

	if err := p.writer.PublishEvent(ctx, p.topic, ce); err != nil {
		return fmt.Errorf("failed to publish %s: %w", BookingConfirmed, err)
	}

	p.logger.Info("booking confirmation published",
		zap.String("booking_number", c.BookingNumber),
		zap.String("topic", p.topic),
	)
	return nil
}

// LogPublisher records confirmations in the log when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishConfirmed logs c.
func (p *LogPublisher) PublishConfirmed(_ context.Context, c booking.Confirmation) error {
	p.logger.Info("booking confirmed",
		zap.String("booking_number", c.BookingNumber),
		zap.String("session_id", c.SessionID.String()),
		zap.Float64("fare", c.Fare.Amount),
		zap.Float64("distance_km", c.DistanceKm),
		zap.Float64("duration_min", c.DurationMin),
	)
	return nil
}
