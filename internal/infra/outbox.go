package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/repository"
)

// EventSink receives each event after it is successfully published. Used for
// in-process read models that follow the relay.
type EventSink interface {
	Apply(ctx context.Context, e domain.OutboxDraft)
}

// OutboxPoller relays committed event_outbox rows to Kafka. Each event type
// doubles as its topic name, and the aggregate's partition key keeps
// per-aggregate ordering. Rows are only marked published after a successful
// publish, so a crash re-delivers rather than drops.
type OutboxPoller struct {
	pool     *pgxpool.Pool
	outbox   repository.OutboxRepository
	producer *KafkaProducer
	metrics  *Metrics
	logger   *slog.Logger
	sinks    []EventSink

	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates an outbox poller.
func NewOutboxPoller(
	pool *pgxpool.Pool,
	outbox repository.OutboxRepository,
	producer *KafkaProducer,
	metrics *Metrics,
	logger *slog.Logger,
	interval time.Duration,
	batchSize int,
	sinks ...EventSink,
) *OutboxPoller {
	return &OutboxPoller{
		pool:      pool,
		outbox:    outbox,
		producer:  producer,
		metrics:   metrics,
		logger:    logger,
		sinks:     sinks,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start begins polling in a goroutine. Stops when ctx is cancelled.
func (p *OutboxPoller) Start(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("outbox poller stopped")
				return
			case <-ticker.C:
				if err := p.poll(ctx); err != nil {
					p.metrics.RelayErrors.Inc()
					p.logger.Error("outbox poll error", "error", err)
				}
			}
		}
	}()
}

func (p *OutboxPoller) poll(ctx context.Context) error {
	events, err := p.outbox.FetchUnpublished(ctx, p.pool, p.batchSize)
	if err != nil {
		return err
	}
	p.metrics.RelayBatchSize.Observe(float64(len(events)))
	if len(events) == 0 {
		p.metrics.OutboxLag.Set(0)
		return nil
	}
	p.metrics.OutboxLag.Set(time.Since(events[0].OccurredAt).Seconds())

	published := make([]int64, 0, len(events))
	for _, e := range events {
		if err := p.publish(ctx, e); err != nil {
			p.metrics.RelayErrors.Inc()
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "error", err)
			// Later rows may belong to the same aggregate; stop the batch
			// here so ordering survives the retry.
			break
		}
		published = append(published, e.SeqID)
		p.metrics.EventsRelayed.WithLabelValues(string(e.EventType)).Inc()
		for _, sink := range p.sinks {
			sink.Apply(ctx, e)
		}
	}

	if len(published) == 0 {
		return nil
	}
	if err := p.outbox.MarkPublished(ctx, p.pool, published); err != nil {
		return err
	}

	p.logger.Debug("outbox poll complete", "published", len(published))
	return nil
}

func (p *OutboxPoller) publish(ctx context.Context, e domain.OutboxDraft) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, string(e.EventType), []byte(e.PartitionKey), msg)
}
