package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client caches read-path responses: the event catalog listing and section
// availability snapshots. Booking decisions never read from here; the
// Coordinator checks inside its transaction.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.TTL == 0 {
		cfg.TTL = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: cfg.TTL}, nil
}

func eventsListKey(page, pageSize int) string {
	return fmt.Sprintf("events:list:%d:%d", page, pageSize)
}

func sectionsKey(eventID string) string {
	return fmt.Sprintf("event:%s:sections", eventID)
}

// GetEventsListRaw returns the cached listing as raw JSON so the handler
// can write it without a decode/encode round trip.
func (c *Client) GetEventsListRaw(ctx context.Context, page, pageSize int) ([]byte, error) {
	return c.rdb.Get(ctx, eventsListKey(page, pageSize)).Bytes()
}

func (c *Client) SetEventsList(ctx context.Context, page, pageSize int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, eventsListKey(page, pageSize), data, c.ttl)
}

func (c *Client) GetSectionsRaw(ctx context.Context, eventID string) ([]byte, error) {
	return c.rdb.Get(ctx, sectionsKey(eventID)).Bytes()
}

func (c *Client) SetSections(ctx context.Context, eventID string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, sectionsKey(eventID), data, c.ttl)
}

// InvalidateEvent drops the availability snapshot after a booking or
// cancellation commits, so readers converge faster than the TTL.
func (c *Client) InvalidateEvent(ctx context.Context, eventID string) error {
	return c.rdb.Del(ctx, sectionsKey(eventID)).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
