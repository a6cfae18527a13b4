package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/revtrack/revenue-tracker/internal/api/metrics"
	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// AuditDispatcher fans authentication audit events out to a fixed set of
// workers, hashing on the account (or identifier) so one account's events are
// written in order. It implements ports.AuditRecorder.
type AuditDispatcher struct {
	workers []chan domain.AuthEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewAuditDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.AuthEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, channelBuffer)
	}
	return d
}

// Start launches the worker goroutines. Once ctx is cancelled each worker
// persists whatever is still buffered and returns.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *AuditDispatcher) Wait() { d.wg.Wait() }

// Record enqueues an event without blocking. When the worker's buffer is full
// the event is dropped and counted.
func (d *AuditDispatcher) Record(event domain.AuthEvent) {
	idx := d.shardIndex(event.ShardKey())
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditEventsDroppedTotal.Inc()
		d.log.Warn().Str("type", string(event.Type)).Int("worker_id", idx).Msg("audit buffer full, event dropped")
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case event := <-ch:
			d.persist(ctx, id, event)
		}
	}
}

// drain flushes the events left in ch without waiting for new ones.
func (d *AuditDispatcher) drain(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	flushed := 0
	for {
		select {
		case event := <-ch:
			d.persist(ctx, id, event)
			flushed++
		default:
			if flushed > 0 {
				d.log.Info().Int("worker_id", id).Int("events", flushed).Msg("audit buffer flushed on shutdown")
			}
			metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(0)
			return
		}
	}
}

func (d *AuditDispatcher) persist(ctx context.Context, id int, event domain.AuthEvent) {
	if err := d.repo.Insert(context.WithoutCancel(ctx), &event); err != nil {
		d.log.Error().Err(err).
			Str("type", string(event.Type)).
			Int("worker_id", id).
			Msg("audit insert failed")
	}
}
