//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/application"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/events"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/mapview"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"
)

const bookingTopic = "ride.booking.events"

// testInfra holds shared test infrastructure.
type testInfra struct {
	KafkaBrokers []string
	Cleanup      func()
}

// bookingStack holds wired-up ride booking components.
type bookingStack struct {
	Sessions        *application.SessionManager
	CleanupProducer func()
}

// fixedRoutes answers every lookup with the same route.
type fixedRoutes struct {
	route booking.Route
}

func (r fixedRoutes) GetRoute(_ context.Context, origin, destination booking.Coordinate) booking.Route {
	route := r.route
	route.Geometry = []booking.Coordinate{origin, destination}
	return route
}

// staticResolver resolves a fixed set of search terms.
type staticResolver map[string]booking.Location

func (r staticResolver) Geocode(_ context.Context, term string) []booking.Location {
	if loc, ok := r[term]; ok {
		return []booking.Location{loc}
	}
	return []booking.Location{}
}

func (r staticResolver) Reverse(context.Context, booking.Coordinate) string { return "" }

// setupContainers starts a Kafka testcontainer.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, bookingTopic)

	cleanup := func() {
		if err := testcontainers.TerminateContainer(kafkaContainer); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	}

	return &testInfra{
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBookingStack wires the session manager to a real Kafka producer.
func setupBookingStack(t *testing.T, brokers []string, resolver application.LocationResolver, route booking.Route) *bookingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	producer := kafka.NewProducer(brokers, logger)
	deps := application.FlowDeps{
		Resolver:  resolver,
		Routes:    fixedRoutes{route: route},
		Pricing:   booking.NewStandardPricingStrategy(),
		Publisher: events.NewKafkaPublisher(producer, bookingTopic, logger),
		Logger:    logger,
	}
	sessions := application.NewSessionManager(func(uuid.UUID) booking.MapView {
		return mapview.New(mapview.Options{AccessToken: "pk.integration"}, nil, logger)
	}, deps, logger)

	return &bookingStack{
		Sessions: sessions,
		CleanupProducer: func() {
			sessions.Shutdown()
			_ = producer.Close()
		},
	}
}

// waitForStatus polls the flow until its status matches.
func waitForStatus(t *testing.T, flow *application.BookingFlow, expected booking.SessionStatus, timeout time.Duration) application.SessionDTO {
	t.Helper()
	var state application.SessionDTO
	require.Eventually(t, func() bool {
		state = flow.State()
		return state.Status == string(expected)
	}, timeout, 50*time.Millisecond, "session did not reach %s", expected)
	return state
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
