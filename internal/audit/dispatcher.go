package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Severities that survive backpressure. A full buffer drops ordinary events;
// these evict the oldest queued event instead, so lockouts and attack
// detections are not the records lost under load.
const (
	severityHigh     = "high"
	severityCritical = "critical"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher forwards audit events to a sink from a single background
// goroutine, keeping Emit non-blocking on the hot path.
type Dispatcher struct {
	cfg   Config
	sink  Sink
	log   zerolog.Logger
	queue chan Event
	done  chan struct{}
	wg    sync.WaitGroup

	dropped   atomic.Uint64
	dropOnce  sync.Once
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher returns nil when auditing is disabled; the nil receiver is
// safe for every method.
func NewDispatcher(cfg Config, sink Sink, logger zerolog.Logger) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		log:   logger.With().Str("component", "audit").Logger(),
		queue: make(chan Event, cfg.BufferSize),
		done:  make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.done:
			d.drain()
			return
		}
	}
}

// drain empties whatever is still queued at close time.
func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		default:
			return
		}
	}
}

// deliver hands one event to the sink, isolating sink panics so a broken
// sink cannot kill the dispatch goroutine.
func (d *Dispatcher) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("event_type", ev.EventType).
				Msg("audit sink panicked")
		}
	}()
	d.sink.Emit(context.Background(), ev)
}

// Emit enqueues one event. Without DropIfFull a full buffer blocks until the
// context is done. With DropIfFull the event is dropped and counted, unless
// it carries high or critical severity, in which case the oldest queued
// event is evicted to make room.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !d.cfg.DropIfFull {
		select {
		case d.queue <- ev:
		case <-ctx.Done():
		case <-d.done:
		}
		return
	}

	select {
	case d.queue <- ev:
		return
	case <-d.done:
		return
	default:
	}

	if ev.Severity == severityHigh || ev.Severity == severityCritical {
		select {
		case evicted := <-d.queue:
			d.countDrop(evicted.EventType)
		default:
		}
		select {
		case d.queue <- ev:
			return
		case <-d.done:
			return
		default:
		}
	}
	d.countDrop(ev.EventType)
}

func (d *Dispatcher) countDrop(eventType string) {
	d.dropped.Add(1)
	d.dropOnce.Do(func() {
		d.log.Warn().Str("event_type", eventType).
			Msg("audit buffer full, dropping events")
	})
}

// Close stops intake and blocks until the queue is fully drained.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns the number of events lost to backpressure.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
