// Package redis implements the catalog store on Redis Stack (RedisJSON + RediSearch) via rueidis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/cengkuru/costknowledgehub/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	defaultClientName   = "knowledgehub"
	defaultPollInterval = 100 * time.Millisecond
)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// ClientName is reported through CLIENT SETNAME. Defaults to "knowledgehub".
	ClientName string
}

// Store is the rueidis-backed catalog store.
type Store struct {
	client rueidis.Client
	poll   time.Duration
}

// NewStore connects to Redis. The client is RESP2 with client-side caching off:
// FT.SEARCH replies are parsed as flat arrays.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}
	name := cfg.ClientName
	if name == "" {
		name = defaultClientName
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   name,
		DisableCache: true,
		AlwaysRESP2:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}
	return newStore(client), nil
}

func newStore(c rueidis.Client) *Store {
	return &Store{client: c, poll: defaultPollInterval}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() { s.client.Close() }

// WaitForReady pings until Redis answers or timeout elapses. Startup blocks on it so the
// index can be ensured before the API serves traffic.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var last error
	for {
		if last = s.Ping(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %s: %w", timeout, errors.Join(ctx.Err(), last))
		case <-ticker.C:
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder { return s.client.B() }

// isRedisErr reports whether err is a server error whose message contains substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
