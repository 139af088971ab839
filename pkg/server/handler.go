// Package server hosts the connection engine, worker pool, and admission
// logic that turn a webcore request/response pair into a running TCP
// service.
package server

import (
	"net"

	"github.com/AmakeSashaDev/maker-web/pkg/webcore"
)

// ConnectionData is per-connection user state carried across every
// keep-alive request on one connection. Implementations should avoid
// allocating in Reset (and in the builder's newData factory) so a
// long-lived worker never allocates on its hot path.
type ConnectionData interface {
	// Reset returns the instance to its freshly constructed state, for
	// reuse on the connection's next caller.
	Reset()
}

// NoConnectionData is the zero-size ConnectionData used by handlers that
// don't need any per-connection state.
type NoConnectionData struct{}

func (NoConnectionData) Reset() {}

// Handler processes one parsed request into a response. Implementations
// should handle their own errors internally and set an appropriate status
// on resp; a panic inside Handle is recovered by the connection loop,
// which drops the connection rather than crash the worker.
type Handler[S ConnectionData] interface {
	Handle(data S, req *webcore.Request, resp *webcore.Response) webcore.Handled
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc[S ConnectionData] func(data S, req *webcore.Request, resp *webcore.Response) webcore.Handled

func (f HandlerFunc[S]) Handle(data S, req *webcore.Request, resp *webcore.Response) webcore.Handled {
	return f(data, req, resp)
}

// ConnectionFilter screens an accepted TCP connection before the first
// read. Filter runs synchronously on the worker goroutine; FilterAsync
// runs only if Filter accepted, and may itself block (there is no
// separate async runtime to bridge here — a goroutine blocking on I/O is
// the idiomatic Go equivalent of the source's async predicate). Either
// step rejects by writing a rejection response into resp and returning
// ok=false; the server then writes that response and recycles the
// connection without running the handler. A rejecting implementation
// must bring resp to completion (Status/Header.../Body, or Http09) before
// returning false — the caller sends resp.Bytes() as-is and does not
// check first, so a rejection that never finalizes resp will panic the
// worker goroutine.
type ConnectionFilter interface {
	Filter(clientAddr, serverAddr net.Addr, resp *webcore.Response) (ok bool)
	FilterAsync(clientAddr, serverAddr net.Addr, resp *webcore.Response) (ok bool)
}

// NoConnectionFilter accepts every connection.
type NoConnectionFilter struct{}

func (NoConnectionFilter) Filter(net.Addr, net.Addr, *webcore.Response) bool      { return true }
func (NoConnectionFilter) FilterAsync(net.Addr, net.Addr, *webcore.Response) bool { return true }
