package sink

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/metric"
)

// defaultSocketTimeout bounds connect and write for one flush.
const defaultSocketTimeout = 5 * time.Second

// Graphite streams batches to a plaintext line-protocol socket.
//
// Each flush opens a fresh connection (TCP) or sends a single datagram
// (UDP), writes the payload with a trailing newline, and closes. There
// is exactly one attempt per flush: delivery is at-most-once so a live
// feed never blocks on network retries while new events keep arriving.
type Graphite struct {
	addr    string
	network string
	timeout time.Duration
	log     Logger
}

// NewGraphite creates a socket client for the configured host, port and
// protocol ("tcp" or "udp").
func NewGraphite(cfg config.SinkConfig, log Logger) (*Graphite, error) {
	network := cfg.Protocol
	if network == "" {
		network = "tcp"
	}
	if network != "tcp" && network != "udp" {
		return nil, fmt.Errorf("%w: socket protocol %q", ErrUnsupportedType, cfg.Protocol)
	}

	return &Graphite{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		network: network,
		timeout: defaultSocketTimeout,
		log:     log,
	}, nil
}

// Deliver encodes the batch as plaintext line protocol and writes it in
// a single connect-write-close cycle.
//
// Errors surface immediately without retry; the flush is dropped. In the
// live feed the consumer loop logs the fault and moves on.
func (g *Graphite) Deliver(ctx context.Context, batch *metric.Batch) error {
	if batch.IsEmpty() {
		return nil
	}

	payload := append(batch.EncodeLineProtocol(), '\n')

	dialer := net.Dialer{Timeout: g.timeout}
	conn, err := dialer.DialContext(ctx, g.network, g.addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s %s: %w", ErrConnectionFailed, g.network, g.addr, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(g.timeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("%w: write %s %s: %w", ErrConnectionFailed, g.network, g.addr, err)
	}

	g.log.Debug("batch streamed",
		"series", batch.Len(),
		"samples", batch.Samples(),
		"addr", g.addr,
	)
	return nil
}

// HealthCheck verifies the socket endpoint accepts a connection. For UDP
// this only validates the address, as datagram sockets have no handshake.
func (g *Graphite) HealthCheck(ctx context.Context) error {
	dialer := net.Dialer{Timeout: g.timeout}
	conn, err := dialer.DialContext(ctx, g.network, g.addr)
	if err != nil {
		return fmt.Errorf("sink health check: %w", err)
	}
	return conn.Close()
}
