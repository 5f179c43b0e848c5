//go:build integration
// +build integration

package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/media-vault/video-archive-go/internal/config"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupTestRabbitMQ(t *testing.T) (*config.EventBusConfig, func()) {
	ctx := context.Background()

	rabbitmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start rabbitmq container: %v", err)
	}

	host, err := rabbitmqContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get host: %v", err)
	}

	port, err := rabbitmqContainer.MappedPort(ctx, "5672/tcp")
	if err != nil {
		t.Fatalf("Failed to get port: %v", err)
	}

	cfg := &config.EventBusConfig{
		Enabled:    true,
		Host:       host,
		Port:       port.Int(),
		User:       "guest",
		Password:   "guest",
		Exchange:   "test.exchange",
		RoutingKey: "test.key",
	}

	cleanup := func() {
		if err := rabbitmqContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return cfg, cleanup
}

func TestNewEventPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	// Allow some time for RabbitMQ to be fully ready
	time.Sleep(2 * time.Second)

	ep, err := NewEventPublisher(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}
	defer ep.Close()

	if ep == nil {
		t.Fatal("NewEventPublisher() returned nil")
	}
}

func TestEventPublisher_Publish(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	time.Sleep(2 * time.Second)

	ep, err := NewEventPublisher(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}
	defer ep.Close()

	env := Envelope{
		Channel: ChannelScheduledArchivals,
		Data: ChangeEvent{
			Action: "INSERT",
			Record: json.RawMessage(`{"id": 1}`),
		},
	}

	if err := ep.Publish(context.Background(), env); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}

func TestEventPublisher_IsHealthy(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	time.Sleep(2 * time.Second)

	ep, err := NewEventPublisher(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}
	defer ep.Close()

	if !ep.IsHealthy() {
		t.Error("IsHealthy() = false, want true")
	}

	// Close and check unhealthy
	ep.Close()
	if ep.IsHealthy() {
		t.Error("IsHealthy() after Close() = true, want false")
	}
}
