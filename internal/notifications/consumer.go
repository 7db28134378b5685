package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// EventConsumer interface defines the contract for consuming booking events
type EventConsumer interface {
	StartConsumers(ctx context.Context, numWorkers int) error
	Stop() error
}

// ConsumerConfig contains configuration for the Kafka event consumer
type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeoutMs     int
	HeartbeatMs          int
	AutoCommit           bool
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

// DefaultConsumerConfig returns a default consumer configuration
func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              "cinebook-notification-workers",
		Topics:               []string{"booking-events"},
		SessionTimeoutMs:     30000,
		HeartbeatMs:          3000,
		AutoCommit:           true,
		OffsetOldest:         false,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

// KafkaEventConsumer consumes booking events and dispatches notifications
type KafkaEventConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	notifier      Notifier
	ctx           context.Context
	cancel        context.CancelFunc
	workers       sync.WaitGroup
}

// NewKafkaEventConsumer creates a new Kafka event consumer
func NewKafkaEventConsumer(config *ConsumerConfig, notifier Notifier) (EventConsumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Return.Errors = true

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	if config.AutoCommit {
		saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
		saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &KafkaEventConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		notifier:      notifier,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// StartConsumers launches worker goroutines consuming the booking events topic
func (c *KafkaEventConsumer) StartConsumers(ctx context.Context, numWorkers int) error {
	log.Printf("Starting %d notification workers for topics: %v", numWorkers, c.config.Topics)

	go c.handleErrors()

	for i := 0; i < numWorkers; i++ {
		c.workers.Add(1)
		go func(workerID int) {
			defer c.workers.Done()
			c.runWorker(ctx, workerID)
		}(i)
	}

	return nil
}

func (c *KafkaEventConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &eventGroupHandler{
		workerID: workerID,
		notifier: c.notifier,
		config:   c.config,
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", workerID)
			return
		default:
			if err := c.consumerGroup.Consume(ctx, c.config.Topics, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					log.Printf("Notification worker %d: consumer group closed", workerID)
					return
				}
				log.Printf("Notification worker %d error consuming messages: %v", workerID, err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (c *KafkaEventConsumer) handleErrors() {
	for err := range c.consumerGroup.Errors() {
		log.Printf("Consumer group error: %v", err)
	}
}

// Stop shuts the consumer group down and waits for the workers to drain.
func (c *KafkaEventConsumer) Stop() error {
	log.Println("Stopping notification consumer...")
	c.cancel()

	if err := c.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}

	c.workers.Wait()
	return nil
}

type eventGroupHandler struct {
	workerID int
	notifier Notifier
	config   *ConsumerConfig
}

func (h *eventGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Printf("Worker %d: consumer group session started", h.workerID)
	return nil
}

func (h *eventGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Printf("Worker %d: consumer group session ended", h.workerID)
	return nil
}

func (h *eventGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := h.processMessage(session.Context(), message); err != nil {
				log.Printf("Worker %d: error processing message: %v", h.workerID, err)
			} else {
				session.MarkMessage(message, "")
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *eventGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event BookingEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal booking event: %w", err)
	}
	if err := validate.Struct(&event); err != nil {
		return fmt.Errorf("invalid booking event: %w", err)
	}

	return h.notifyWithRetry(ctx, &event)
}

func (h *eventGroupHandler) notifyWithRetry(ctx context.Context, event *BookingEvent) error {
	backoff := h.config.RetryBackoffDuration

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		err := h.notifier.Notify(ctx, event)
		if err == nil {
			return nil
		}

		if attempt == h.config.MaxRetries {
			return fmt.Errorf("failed to notify after %d attempts: %w", h.config.MaxRetries, err)
		}

		delay := backoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
