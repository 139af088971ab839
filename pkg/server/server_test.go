package server

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/AmakeSashaDev/maker-web/pkg/webcore"
)

func mustListen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return ln
}

func smallServerLimits() webcore.ServerLimits {
	limits := webcore.DefaultServerLimits()
	limits.MaxConnections = 2
	limits.MaxPendingConnections = 4
	limits.Count503Handlers = 1
	limits.WaitStrategy = webcore.SleepWait(time.Millisecond)
	return limits
}

func TestServerEndToEndRequestResponse(t *testing.T) {
	ln := mustListen(t)
	addr := ln.Addr().String()

	srv := NewServerBuilder[NoConnectionData](nil).
		Listener(ln).
		HandlerFn(echoHandler{}).
		ServerLimits(smallServerLimits()).
		Build()
	defer srv.Shutdown(context.Background())

	go srv.Launch()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("GET /status HTTP/1.1\r\nconnection: close\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 200 OK") {
		t.Fatalf("unexpected status line: %q", statusLine)
	}
}

func TestServerRejectingConnectionFilterSkipsHandler(t *testing.T) {
	ln := mustListen(t)
	addr := ln.Addr().String()

	srv := NewServerBuilder[NoConnectionData](nil).
		Listener(ln).
		HandlerFn(echoHandler{}).
		ConnFilter(denyAllFilter{}).
		ServerLimits(smallServerLimits()).
		Build()
	defer srv.Shutdown(context.Background())

	go srv.Launch()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("GET / HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 403 Forbidden") {
		t.Fatalf("unexpected status line from rejected connection: %q", statusLine)
	}
}

// denyAllFilter rejects every connection with a canned 403, exercising the
// ConnectionFilter rejection path through the worker pool.
type denyAllFilter struct{}

func (denyAllFilter) Filter(_, _ net.Addr, resp *webcore.Response) bool {
	resp.Status(webcore.StatusForbidden).Body(webcore.Str(""))
	return false
}

func (denyAllFilter) FilterAsync(net.Addr, net.Addr, *webcore.Response) bool { return true }
