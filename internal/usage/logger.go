package usage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	flushTimeout         = 30 * time.Second
	shutdownFlushTimeout = 10 * time.Second
)

// LoggerInterface is implemented by Logger and NoopLogger.
type LoggerInterface interface {
	Write(entry *UsageEntry)
	Config() Config
	Close() error
}

// Logger buffers entries in a channel and writes them to the store in
// batches, either when BatchFlushThreshold entries are pending or when the
// flush interval elapses.
type Logger struct {
	store   UsageStore
	config  Config
	buffer  chan *UsageEntry
	done    chan struct{}
	wg      sync.WaitGroup
	writes  sync.WaitGroup // in-flight Write calls
	closed  atomic.Bool
	dropped atomic.Int64
}

// NewLogger starts the background flush goroutine.
func NewLogger(store UsageStore, cfg Config) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	l := &Logger{
		store:  store,
		config: cfg,
		buffer: make(chan *UsageEntry, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	l.wg.Add(1)
	go l.flushLoop()

	return l
}

// Write queues an entry without blocking. Entries are dropped when the
// buffer is full or the logger is closed.
func (l *Logger) Write(entry *UsageEntry) {
	if entry == nil || l.closed.Load() {
		return
	}

	l.writes.Add(1)
	defer l.writes.Done()

	// Close may have run between the first check and Add.
	if l.closed.Load() {
		return
	}

	select {
	case l.buffer <- entry:
	default:
		l.dropped.Add(1)
		slog.Warn("usage buffer full, dropping entry",
			"request_id", entry.RequestID,
			"strategy", entry.Strategy,
			"model", entry.Model,
		)
	}
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}

// Dropped reports how many entries were discarded because the buffer was full.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Close flushes pending entries and closes the store. It is idempotent.
func (l *Logger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}

	l.writes.Wait()
	close(l.done)
	l.wg.Wait()

	return l.store.Close()
}

func (l *Logger) flushLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*UsageEntry, 0, BatchFlushThreshold)

	for {
		select {
		case entry := <-l.buffer:
			batch = append(batch, entry)
			if len(batch) >= BatchFlushThreshold {
				l.flushBatch(batch)
				batch = make([]*UsageEntry, 0, BatchFlushThreshold)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flushBatch(batch)
				batch = make([]*UsageEntry, 0, BatchFlushThreshold)
			}

		case <-l.done:
			close(l.buffer)
			for entry := range l.buffer {
				batch = append(batch, entry)
			}
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
			ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			if err := l.store.Flush(ctx); err != nil {
				slog.Error("failed to flush usage store", "error", err)
			}
			cancel()
			return
		}
	}
}

func (l *Logger) flushBatch(batch []*UsageEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := l.store.WriteBatch(ctx, batch); err != nil {
		slog.Error("failed to write usage batch",
			"error", err,
			"count", len(batch),
		)
	}
}

// NoopLogger discards entries. It is used when usage tracking is disabled.
type NoopLogger struct{}

func (l *NoopLogger) Write(_ *UsageEntry) {}

func (l *NoopLogger) Config() Config {
	return Config{Enabled: false}
}

func (l *NoopLogger) Close() error {
	return nil
}
