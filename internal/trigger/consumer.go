// Package trigger consumes attendance generation requests from Kafka. The
// consumer is at-least-once: the orchestrator's idempotency guard makes
// duplicate and replayed deliveries harmless, so a message is only left
// uncommitted when the failure looks transient.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"rollcall/internal/attendance/service"
	"rollcall/internal/platform/config"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
)

// message is the wire payload on the generate topic.
type message struct {
	LectureID string `json:"lecture_id"`
}

type Consumer struct {
	logger  *slog.Logger
	client  *kgo.Client
	service *service.Service
	topic   string
}

// NewConsumer connects to the brokers and ensures the topic exists. Returns
// (nil, nil) when no brokers are configured; the HTTP trigger still works.
func NewConsumer(logger *slog.Logger, cfg config.KafkaConfig, svc *service.Service) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(client, cfg.Topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Consumer{
		logger:  logger,
		client:  client,
		service: svc,
		topic:   cfg.Topic,
	}, nil
}

const topicEnsureTimeout = 10 * time.Second

func ensureTopic(client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	ctx, cancel := context.WithTimeout(context.Background(), topicEnsureTimeout)
	defer cancel()

	resp, err := admin.CreateTopic(ctx, 1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	// Already-exists is the expected steady state.
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// Run polls until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()

	c.logger.Info("attendance trigger consumer started", "topic", c.topic)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var processed []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			if c.handle(ctx, record) {
				processed = append(processed, record)
			}
		})

		if len(processed) > 0 {
			if err := c.client.CommitRecords(ctx, processed...); err != nil {
				c.logger.Error("commit offsets failed", "error", err)
			}
		}
	}
}

// handle processes one trigger. Returns true when the record should be
// committed: success, no-op, and permanently bad messages all commit;
// transient failures leave the offset for redelivery.
func (c *Consumer) handle(ctx context.Context, record *kgo.Record) bool {
	var msg message
	if err := json.Unmarshal(record.Value, &msg); err != nil {
		c.logger.Error("dropping malformed trigger message", "error", err)
		return true
	}
	lectureID, err := id.ParseLectureID(msg.LectureID)
	if err != nil {
		c.logger.Error("dropping trigger with invalid lecture id",
			"lecture_id", msg.LectureID,
			"error", err,
		)
		return true
	}

	result, err := c.service.Generate(ctx, lectureID)
	if err != nil {
		switch domainerrors.CodeOf(err) {
		case domainerrors.CodeNotFound, domainerrors.CodeInvalidState, domainerrors.CodeNoEvidence:
			// The retry will never succeed until a human acts; park it in
			// the logs, not the partition.
			c.logger.Warn("trigger rejected",
				"lecture_id", lectureID.String(),
				"error", err,
			)
			return true
		default:
			c.logger.Error("trigger failed, leaving for redelivery",
				"lecture_id", lectureID.String(),
				"error", err,
			)
			return false
		}
	}

	if result.AlreadyProcessed {
		c.logger.Info("trigger was a no-op", "lecture_id", lectureID.String())
	} else {
		c.logger.Info("trigger generated attendance",
			"lecture_id", lectureID.String(),
			"record_id", result.Record.ID.String(),
		)
	}
	return true
}
