package server

import (
	"context"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AmakeSashaDev/maker-web/pkg/webcore"
)

// ServerBuilder configures and constructs a Server. S is the per-connection
// user state type; NewData must be supplied whenever S is anything beyond
// NoConnectionData, since Go generics have no implicit "construct a fresh
// S" operation the way the source's ConnectionData::new() trait method
// does.
type ServerBuilder[S ConnectionData] struct {
	listener net.Listener
	handler  Handler[S]
	newData  func() S
	filter   ConnectionFilter
	logger   zerolog.Logger

	serverLimits webcore.ServerLimits
	connLimits   webcore.ConnLimits
	http09Limits *webcore.Http09Limits
	reqLimits    webcore.ReqLimits
	respLimits   webcore.RespLimits
}

// NewServerBuilder returns a builder with every limits struct set to its
// library default and an accept-everything connection filter.
func NewServerBuilder[S ConnectionData](newData func() S) *ServerBuilder[S] {
	return &ServerBuilder[S]{
		newData:      newData,
		filter:       NoConnectionFilter{},
		logger:       zerolog.Nop(),
		serverLimits: webcore.DefaultServerLimits(),
		connLimits:   webcore.DefaultConnLimits(),
		reqLimits:    webcore.DefaultReqLimits(),
		respLimits:   webcore.DefaultRespLimits(),
	}
}

// Listener sets the TCP listener the server accepts on. Required.
func (b *ServerBuilder[S]) Listener(l net.Listener) *ServerBuilder[S] {
	b.listener = l
	return b
}

// HandlerFn sets the request handler. Required.
func (b *ServerBuilder[S]) HandlerFn(h Handler[S]) *ServerBuilder[S] {
	b.handler = h
	return b
}

// ConnFilter installs a connection filter, run before the first byte of
// every accepted connection is read. Optional; defaults to accepting
// everything.
func (b *ServerBuilder[S]) ConnFilter(f ConnectionFilter) *ServerBuilder[S] {
	b.filter = f
	return b
}

// Logger installs a zerolog.Logger for connection lifecycle and error
// events. Optional; defaults to a disabled (zerolog.Nop) logger so the
// hot path pays nothing unless the caller opts in.
func (b *ServerBuilder[S]) Logger(log zerolog.Logger) *ServerBuilder[S] {
	b.logger = log
	return b
}

// ServerLimits overrides the library's default server-wide worker pool
// and admission-queue limits.
func (b *ServerBuilder[S]) ServerLimits(l webcore.ServerLimits) *ServerBuilder[S] {
	b.serverLimits = l
	return b
}

// ConnLimits overrides the library's default per-connection timeouts and
// lifetime.
func (b *ServerBuilder[S]) ConnLimits(l webcore.ConnLimits) *ServerBuilder[S] {
	b.connLimits = l
	return b
}

// Http09Limits enables the restricted HTTP/0.9+ dialect with the given
// limits. Omitting this call leaves HTTP/0.9+ disabled: those requests
// are rejected with UnsupportedVersion.
func (b *ServerBuilder[S]) Http09Limits(l webcore.Http09Limits) *ServerBuilder[S] {
	b.http09Limits = &l
	return b
}

// ReqLimits overrides the library's default request parsing limits.
func (b *ServerBuilder[S]) ReqLimits(l webcore.ReqLimits) *ServerBuilder[S] {
	b.reqLimits = l
	return b
}

// RespLimits overrides the library's default response buffer recycling
// limits.
func (b *ServerBuilder[S]) RespLimits(l webcore.RespLimits) *ServerBuilder[S] {
	b.respLimits = l
	return b
}

// Build finalizes the builder, pre-allocating every worker's
// httpConnection and spawning the worker and 503-responder goroutines. The
// accept loop is not started here; it runs in Launch. Panics if Listener or
// HandlerFn was never called.
func (b *ServerBuilder[S]) Build() *Server[S] {
	if b.listener == nil {
		panic("server: Listener must be called before Build")
	}
	if b.handler == nil {
		panic("server: HandlerFn must be called before Build")
	}

	limits := allLimits{
		server: b.serverLimits,
		conn:   b.connLimits,
		http09: b.http09Limits,
		req:    b.reqLimits.Precalculate(),
		resp:   b.respLimits,
	}

	admission := make(chan pendingConn, limits.server.MaxPendingConnections)
	errQueue := make(chan pendingConn, limits.server.MaxPendingConnections)

	newData := b.newData
	if newData == nil {
		newData = func() S {
			var zero S
			return zero
		}
	}

	// ctx, not errgroup.WithContext's derived context, gates the worker and
	// alarmist loops: only Shutdown should stop every one of them at once, not
	// one worker's own returned error (which is always nil in steady state,
	// but the distinction matters if that ever changes).
	ctx, cancel := context.WithCancel(context.Background())
	group := new(errgroup.Group)

	for i := 0; i < limits.server.MaxConnections; i++ {
		conn := newHTTPConnection(b.handler, newData(), limits, b.logger)
		group.Go(func() error {
			return runWorker(ctx, conn, admission, b.filter, limits.server.WaitStrategy, b.logger)
		})
	}

	if limits.server.Count503Handlers > 0 {
		for i := 0; i < limits.server.Count503Handlers; i++ {
			group.Go(func() error {
				return runAlarmist(ctx, errQueue, limits.server.WaitStrategy, limits.server.JSONErrors)
			})
		}
	} else {
		group.Go(func() error {
			return runQuietAlarmist(ctx, errQueue, limits.server.WaitStrategy)
		})
	}

	return &Server[S]{
		listener:  b.listener,
		limits:    limits,
		log:       b.logger,
		admission: admission,
		errors:    errQueue,
		ctx:       ctx,
		cancel:    cancel,
		group:     group,
	}
}
