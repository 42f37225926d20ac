package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyConfig holds connection details for a Valkey server.
type ValkeyConfig struct {
	Address  string
	Password string
	TLS      bool
}

// ValkeyCache shares cached values between processes through Valkey.
type ValkeyCache struct {
	client valkey.Client
}

// NewValkeyCache connects and pings the server.
func NewValkeyCache(ctx context.Context, cfg ValkeyConfig) (*ValkeyCache, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey: %w", err)
	}
	slog.Info("[ValkeyCache] connected", slog.String("address", cfg.Address))
	return &ValkeyCache{client: client}, nil
}

func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			slog.Warn("[ValkeyCache] get failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	return data, true
}

func (c *ValkeyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var cmd valkey.Completed
	if secs := int64(ttl / time.Second); secs > 0 {
		cmd = c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).ExSeconds(secs).Build()
	} else {
		cmd = c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}

func (c *ValkeyCache) Close() error {
	c.client.Close()
	return nil
}
