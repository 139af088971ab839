package server

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AmakeSashaDev/maker-web/internal/herrors"
	"github.com/AmakeSashaDev/maker-web/pkg/webcore"
)

// allLimits bundles every limits struct a worker needs to build one
// httpConnection, mirroring the source's flat limits tuple.
type allLimits struct {
	server webcore.ServerLimits
	conn   webcore.ConnLimits
	http09 *webcore.Http09Limits
	req    webcore.ReqLimits
	resp   webcore.RespLimits
}

// pendingConn is one accepted socket waiting to be claimed by a worker or
// a 503 responder.
type pendingConn struct {
	conn net.Conn
	addr net.Addr
}

// Server owns a TCP listener, a pre-allocated worker pool, and the
// admission/error queues feeding it. Once built, the set of workers never
// changes: no connection object is created or destroyed after Build.
type Server[S ConnectionData] struct {
	listener net.Listener
	limits   allLimits
	log      zerolog.Logger

	admission chan pendingConn
	errors    chan pendingConn

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Launch starts the accept loop and blocks until the listener closes, either
// because it failed or because Shutdown was called. Shutdown's cancellation
// is reported as a nil error; any other Accept failure is returned.
func (s *Server[S]) Launch() error {
	go func() {
		<-s.ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("server: accept failed: %w", err)
		}
		pc := pendingConn{conn: conn, addr: conn.RemoteAddr()}

		select {
		case s.admission <- pc:
		default:
			select {
			case s.errors <- pc:
			default:
				s.log.Warn().Msg("admission and error queues both full, dropping connection")
				_ = conn.Close()
			}
		}
	}
}

// Shutdown stops accepting new connections and waits for every worker and
// 503-responder goroutine to finish its current connection, up to ctx's
// deadline.
func (s *Server[S]) Shutdown(ctx context.Context) error {
	s.cancel()

	waitDone := make(chan error, 1)
	go func() { waitDone <- s.group.Wait() }()

	select {
	case err := <-waitDone:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func waitBackoff(ws webcore.WaitStrategy) {
	if ws.Yield {
		runtime.Gosched()
		return
	}
	time.Sleep(ws.Sleep)
}

// getPending polls queue, backing off per ws between empty polls, until a
// connection arrives or ctx is cancelled (ok=false in the latter case).
func getPending(ctx context.Context, queue chan pendingConn, ws webcore.WaitStrategy) (pendingConn, bool) {
	for {
		select {
		case pc := <-queue:
			return pc, true
		case <-ctx.Done():
			return pendingConn{}, false
		default:
			waitBackoff(ws)
		}
	}
}

// runWorker owns one httpConnection for the server's entire lifetime: pop a
// pending connection, apply the connection filter, then run the protocol
// engine to completion before looping back for the next stream. Returns
// when ctx is cancelled, satisfying the errgroup.Group contract Build
// schedules it under.
func runWorker[S ConnectionData](ctx context.Context, conn *httpConnection[S], queue chan pendingConn, filter ConnectionFilter, ws webcore.WaitStrategy, log zerolog.Logger) error {
	for {
		pc, ok := getPending(ctx, queue, ws)
		if !ok {
			return nil
		}

		localAddr := pc.conn.LocalAddr()

		if !filter.Filter(pc.addr, localAddr, conn.response) || !filter.FilterAsync(pc.addr, localAddr, conn.response) {
			log.Debug().Stringer("client", pc.addr).Msg("connection rejected by filter")
			_, _ = pc.conn.Write(conn.response.Bytes())
			_ = pc.conn.Close()
			conn.response.Reset(conn.respLimits)
			conn.response.SetVersion(webcore.VersionHTTP11)
			conn.response.SetKeepAlive(true)
			continue
		}

		conn.run(pc.conn)
		_ = pc.conn.Close()
		conn.response.Reset(conn.respLimits)
		conn.response.SetVersion(webcore.VersionHTTP11)
		conn.response.SetKeepAlive(true)
	}
}

// runAlarmist drains the error queue, writing the canned 503 response to
// every connection it sees before closing it.
func runAlarmist(ctx context.Context, queue chan pendingConn, ws webcore.WaitStrategy, jsonErrors bool) error {
	for {
		pc, ok := getPending(ctx, queue, ws)
		if !ok {
			return nil
		}
		canned := herrors.CannedResponse(herrors.ServiceUnavailable, herrors.ProtoHTTP11, jsonErrors)
		_, _ = pc.conn.Write(canned)
		_ = pc.conn.Close()
	}
}

// runQuietAlarmist drains the error queue and silently drops every
// connection it sees, used when Count503Handlers is 0.
func runQuietAlarmist(ctx context.Context, queue chan pendingConn, ws webcore.WaitStrategy) error {
	for {
		pc, ok := getPending(ctx, queue, ws)
		if !ok {
			return nil
		}
		_ = pc.conn.Close()
	}
}
