package worker

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/NarekNk/todo-task/internal/config"
	"github.com/NarekNk/todo-task/internal/models"
	"github.com/NarekNk/todo-task/pkg/logger"
)

// EventSink persists consumed lifecycle events. Implemented by the Postgres store.
type EventSink interface {
	InsertEvent(ctx context.Context, ev *models.TodoEvent) error
}

// Run consumes todo lifecycle events and writes them to the audit table.
// One consumer per process; scale by running more replicas (the consumer
// group shares partitions). Returns nil immediately when Kafka is not
// configured or no sink is available.
func Run(ctx context.Context, cfg *config.Config, sink EventSink) error {
	if len(cfg.KafkaBrokers) == 0 || sink == nil {
		logger.Info(ctx, "Audit worker disabled")
		return nil
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	logger.Info(ctx, "Audit worker started", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, sink, msg.Value); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway so a poison message cannot block the partition.
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
	}
}

func handleMessage(ctx context.Context, sink EventSink, payload []byte) error {
	var ev models.TodoEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	switch ev.Action {
	case models.EventCreated, models.EventUpdated, models.EventDeleted:
		return sink.InsertEvent(ctx, &ev)
	}
	logger.Debug(ctx, "Skipping unknown event action", "action", ev.Action)
	return nil
}
