package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rideshare-platform/service-rides/internal/application"
	"github.com/rideshare-platform/service-rides/internal/pkg/events"
	"github.com/rideshare-platform/service-rides/internal/pkg/kafka"
)

// UserEventConsumer listens to identity-service events and cancels the open
// rides of deactivated drivers.
type UserEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.RideService
	logger   *zap.Logger
}

// NewUserEventConsumer creates a new UserEventConsumer.
func NewUserEventConsumer(
	brokers []string,
	groupID string,
	service *application.RideService,
	logger *zap.Logger,
) *UserEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicUserEvents, logger)
	return &UserEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming user events. This blocks until the context is cancelled.
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *UserEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *UserEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from user topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.UserDeactivated:
		return c.handleUserDeactivated(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled user event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *UserEventConsumer) handleUserDeactivated(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.UserDeactivatedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse UserDeactivatedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing user deactivated event",
		zap.String("user_id", evt.UserID.String()),
		zap.String("reason", evt.Reason),
	)

	cancelled, err := c.service.CancelDriverRides(ctx, evt.UserID)
	if err != nil {
		c.logger.Error("failed to cancel rides for deactivated driver",
			zap.String("user_id", evt.UserID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("cancelled rides for deactivated driver",
		zap.String("user_id", evt.UserID.String()),
		zap.Int("count", cancelled),
	)
	return nil
}
