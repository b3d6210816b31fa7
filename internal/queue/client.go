package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"soc-platform/internal/event"

	"github.com/redis/go-redis/v9"
)

const (
	payloadField = "payload"
	// blockTimeout bounds how long a read blocks when no entries exist,
	// so the consumer notices context cancellation without busy-polling.
	blockTimeout = 2 * time.Second
	readBatch    = 100
	// retryBackoff delays re-delivery after a handler failure.
	retryBackoff = time.Second
)

// Handler processes one delivered event. Returning nil advances the
// checkpoint; returning an error leaves it in place so the entry replays.
type Handler func(ctx context.Context, ev event.LogEvent) error

// Client appends events to an ordered, replayable Redis stream and tails
// it from a checkpointed cursor.
//
// Delivery is at-least-once: a crash between handler execution and
// checkpoint advancement replays the entry. Downstream consumers must
// tolerate replays.
type Client struct {
	rdb           *redis.Client
	stream        string
	checkpointKey string
	log           *slog.Logger
}

func NewClient(rdb *redis.Client, stream, checkpointKey string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		rdb:           rdb,
		stream:        stream,
		checkpointKey: checkpointKey,
		log:           log,
	}
}

// Enqueue appends the event and returns once the broker acknowledges the write.
func (c *Client) Enqueue(ctx context.Context, ev event.LogEvent) error {
	payload, err := encodeEvent(ev)
	if err != nil {
		return fmt.Errorf("queue: encode event %s: %w", ev.ID, err)
	}
	if err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: c.stream,
		Values: map[string]any{payloadField: payload},
	}).Err(); err != nil {
		return fmt.Errorf("queue: append to %s: %w", c.stream, err)
	}
	return nil
}

// Consume tails the stream from the persisted checkpoint, invoking the
// handler for every entry in stream order. The checkpoint advances only
// after the handler returns nil. Blocks until ctx is cancelled.
func (c *Client) Consume(ctx context.Context, h Handler) error {
	last, err := c.loadCheckpoint(ctx)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		streams, err := c.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{c.stream, last},
			Count:   readBatch,
			Block:   blockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // no new entries within the block window
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("queue read failed", "stream", c.stream, "err", err)
			sleepCtx(ctx, retryBackoff)
			continue
		}

		for _, s := range streams {
			last = c.deliver(ctx, s.Messages, h, last)
		}
	}
}

// deliver hands each entry to the handler in stream order. On handler
// failure it stops and returns the unadvanced cursor so the entry replays.
func (c *Client) deliver(ctx context.Context, msgs []redis.XMessage, h Handler, last string) string {
	for _, msg := range msgs {
		ev, err := decodeMessage(msg)
		if err != nil {
			// Poison entry: skip it or the stream wedges forever.
			c.log.Error("queue entry undecodable, skipping", "id", msg.ID, "err", err)
			last = msg.ID
			c.saveCheckpoint(ctx, last)
			continue
		}
		if err := h(ctx, ev); err != nil {
			c.log.Error("queue handler failed, entry will replay",
				"id", msg.ID, "event", ev.ID, "err", err)
			sleepCtx(ctx, retryBackoff)
			return last
		}
		last = msg.ID
		c.saveCheckpoint(ctx, last)
	}
	return last
}

func (c *Client) loadCheckpoint(ctx context.Context) (string, error) {
	v, err := c.rdb.Get(ctx, c.checkpointKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("queue: load checkpoint %s: %w", c.checkpointKey, err)
	}
	return v, nil
}

func (c *Client) saveCheckpoint(ctx context.Context, id string) {
	if err := c.rdb.Set(ctx, c.checkpointKey, id, 0).Err(); err != nil {
		// Losing the save means replaying from the previous cursor, which
		// at-least-once delivery already permits.
		c.log.Error("queue checkpoint save failed", "id", id, "err", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func encodeEvent(ev event.LogEvent) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMessage(msg redis.XMessage) (event.LogEvent, error) {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		return event.LogEvent{}, fmt.Errorf("entry %s has no %s field", msg.ID, payloadField)
	}
	var ev event.LogEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return event.LogEvent{}, err
	}
	return ev, nil
}
