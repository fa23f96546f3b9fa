package sink

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/metric"
)

// acceptOne reads one newline-terminated payload from the next TCP
// connection and sends it on the returned channel.
func acceptOne(t *testing.T, ln net.Listener) <-chan string {
	t.Helper()
	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var sb strings.Builder
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			sb.WriteString(scanner.Text())
			sb.WriteByte('\n')
		}
		out <- sb.String()
	}()
	return out
}

func graphiteFor(t *testing.T, addr, protocol string) *Graphite {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("splitting addr: %v", err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("parsing port: %v", err)
	}
	g, err := NewGraphite(config.SinkConfig{
		Type:     "graphite",
		Host:     host,
		Port:     portNum,
		Protocol: protocol,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewGraphite() error = %v", err)
	}
	return g
}

// =============================================================================
// TCP
// =============================================================================

func TestGraphite_Deliver_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	received := acceptOne(t, ln)

	g := graphiteFor(t, ln.Addr().String(), "tcp")
	if err := g.Deliver(context.Background(), testBatch()); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	select {
	case payload := <-received:
		want := "ha.sensor.temp.value;unit_of_measurement=°C 21.5 1700000000\n"
		if payload != want {
			t.Errorf("payload = %q, want %q", payload, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no payload received")
	}
}

func TestGraphite_Deliver_TCPRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close() // port now refuses connections

	g := graphiteFor(t, addr, "tcp")

	start := time.Now()
	err = g.Deliver(context.Background(), testBatch())
	if err == nil {
		t.Fatal("Deliver() error = nil against refused connection")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Deliver() error = %v, want ErrConnectionFailed", err)
	}
	// Exactly one attempt: no retry ladder on the socket path.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Deliver() took %v, socket path must not retry", elapsed)
	}
}

func TestGraphite_Deliver_EmptyBatch(t *testing.T) {
	g := graphiteFor(t, "127.0.0.1:1", "tcp") // would refuse if dialled
	if err := g.Deliver(context.Background(), metric.NewBatch()); err != nil {
		t.Errorf("Deliver() error = %v for empty batch", err)
	}
}

// =============================================================================
// UDP
// =============================================================================

func TestGraphite_Deliver_UDP(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	defer conn.Close()

	g := graphiteFor(t, conn.LocalAddr().String(), "udp")
	if err := g.Deliver(context.Background(), testBatch()); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("reading datagram: %v", err)
	}
	payload := string(buf[:n])
	if !strings.HasSuffix(payload, "\n") {
		t.Errorf("datagram %q missing trailing newline", payload)
	}
	if !strings.Contains(payload, "ha.sensor.temp.value") {
		t.Errorf("datagram = %q, want line protocol sample", payload)
	}
}

func TestNewGraphite_RejectsUnknownProtocol(t *testing.T) {
	_, err := NewGraphite(config.SinkConfig{Host: "h", Port: 2003, Protocol: "sctp"}, testLogger())
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("NewGraphite(sctp) error = %v, want ErrUnsupportedType", err)
	}
}
