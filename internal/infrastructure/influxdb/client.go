package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
)

// defaultConnectTimeout bounds the connectivity ping at startup.
const defaultConnectTimeout = 10 * time.Second

// Client wraps the InfluxDB v2 client for read-only historical queries.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines,
//     though backfill runs query sequentially by design.
type Client struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	cfg      config.InputConfig

	connected bool
	mu        sync.RWMutex
}

// Connect establishes a connection to the InfluxDB server.
//
// It performs the following setup:
//  1. Creates the client with token authentication
//  2. Verifies connectivity with a ping
//  3. Creates the query API bound to the configured organisation
//
// Parameters:
//   - ctx: Context for the connectivity check
//   - cfg: Input backend configuration
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the connection attempt fails
func Connect(ctx context.Context, cfg config.InputConfig) (*Client, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	return &Client{
		client:    client,
		queryAPI:  client.QueryAPI(cfg.Org),
		cfg:       cfg,
		connected: true,
	}, nil
}

// Close shuts down the InfluxDB connection.
func (c *Client) Close() {
	if c == nil || c.client == nil {
		return
	}
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.client.Close()
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
