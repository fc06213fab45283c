package config

import (
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/assessment-session-service/internal/events"
)

// EventConfig holds configuration for event publishing
type EventConfig struct {
	Enabled      bool   `mapstructure:"EVENTS_ENABLED"`
	Publisher    string `mapstructure:"EVENTS_PUBLISHER"` // kafka, channel or mock
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	SessionTopic string `mapstructure:"SESSION_TOPIC"`
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	brokers := strings.Split(c.KafkaBrokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return brokers
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	pubConfig := events.PublisherConfig{
		KafkaBrokers: c.GetKafkaBrokers(),
		TopicName:    c.SessionTopic,
		Logger:       logger,
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.SessionTopic)
		return events.NewKafkaEventPublisher(pubConfig)
	case "channel":
		logger.Info("Creating in-process event publisher", "topic", c.SessionTopic)
		publisher, _ := events.NewChannelEventPublisher(pubConfig)
		return publisher, nil
	case "mock":
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil
	default:
		logger.Warn("Unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}
}
