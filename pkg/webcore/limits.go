package webcore

import "time"

// WaitStrategy controls how a worker backs off while polling an empty queue.
//
// Yield reschedules the calling goroutine cooperatively. Sleep waits a fixed
// duration between polls. The contract that matters is that a worker makes
// progress exactly when its queue is non-empty, without unbounded spinning.
type WaitStrategy struct {
	// Yield selects cooperative rescheduling (runtime.Gosched) instead of a
	// timed sleep. When false, Sleep is used.
	Yield bool

	// Sleep is the back-off duration used when Yield is false.
	Sleep time.Duration
}

// YieldWait returns a WaitStrategy that cooperatively reschedules between
// polls instead of sleeping.
func YieldWait() WaitStrategy {
	return WaitStrategy{Yield: true}
}

// SleepWait returns a WaitStrategy that sleeps d between polls.
func SleepWait(d time.Duration) WaitStrategy {
	return WaitStrategy{Sleep: d}
}

// ServerLimits configures the server-wide worker pool and admission queue.
type ServerLimits struct {
	// MaxConnections is the number of worker goroutines (and pre-allocated
	// HttpConnections) the server owns for its entire lifetime.
	MaxConnections int

	// MaxPendingConnections bounds the admission queue. Accepted streams
	// beyond this bound are routed to the error (503) queue instead.
	MaxPendingConnections int

	// WaitStrategy governs how idle workers and 503 responders back off.
	WaitStrategy WaitStrategy

	// Count503Handlers is the number of goroutines draining the error
	// queue to emit canned 503 responses. Zero means a single goroutine
	// drains the queue and silently drops the connections (quiet mode).
	Count503Handlers int

	// JSONErrors selects whether canned error bodies are JSON (true) or
	// empty (false). Always connection: close either way.
	JSONErrors bool
}

// DefaultServerLimits returns the library's default server-wide limits.
func DefaultServerLimits() ServerLimits {
	return ServerLimits{
		MaxConnections:        100,
		MaxPendingConnections: 250,
		WaitStrategy:          SleepWait(50 * time.Microsecond),
		Count503Handlers:      1,
		JSONErrors:            true,
	}
}

// ConnLimits configures per-connection timeouts and lifetime for HTTP/1.0
// and HTTP/1.1 connections.
type ConnLimits struct {
	// SocketReadTimeout bounds a single read from the socket.
	SocketReadTimeout time.Duration

	// SocketWriteTimeout bounds writing the full response buffer.
	SocketWriteTimeout time.Duration

	// MaxRequestsPerConnection expires the connection once reached.
	MaxRequestsPerConnection int

	// ConnectionLifetime expires the connection once exceeded, regardless
	// of request count.
	ConnectionLifetime time.Duration
}

// DefaultConnLimits returns the library's default connection limits.
func DefaultConnLimits() ConnLimits {
	return ConnLimits{
		SocketReadTimeout:        2 * time.Second,
		SocketWriteTimeout:       3 * time.Second,
		MaxRequestsPerConnection: 100,
		ConnectionLifetime:       120 * time.Second,
	}
}

// Http09Limits configures the restricted HTTP/0.9+ dialect. Its presence on
// a builder (a non-nil *Http09Limits) is what enables HTTP/0.9+ support;
// omitting it causes HTTP/0.9+ requests to be rejected with
// UnsupportedVersion.
type Http09Limits struct {
	MaxRequestsPerConnection int
	ConnectionLifetime       time.Duration
}

// DefaultHttp09Limits returns the library's default HTTP/0.9+ limits.
func DefaultHttp09Limits() Http09Limits {
	return Http09Limits{
		MaxRequestsPerConnection: 250,
		ConnectionLifetime:       30 * time.Second,
	}
}

// ReqLimits bounds every dimension of an incoming request and determines
// the fixed size of the per-connection parser buffer. Call Precalculate
// once (the builder does this automatically) before deriving buffer sizes.
type ReqLimits struct {
	URLSize         int
	URLParts        int
	URLQuerySize    int
	URLQueryParts   int
	HeaderCount     int
	HeaderNameSize  int
	HeaderValueSize int
	BodySize        int

	precalc reqLimitsPrecalc
}

type reqLimitsPrecalc struct {
	buffer        int
	firstLine     int
	reqWithoutBody int
	hLine         int
}

// DefaultReqLimits returns the library's default request limits.
func DefaultReqLimits() ReqLimits {
	return ReqLimits{
		URLSize:         256,
		URLParts:        8,
		URLQuerySize:    128,
		URLQueryParts:   8,
		HeaderCount:     16,
		HeaderNameSize:  64,
		HeaderValueSize: 512,
		BodySize:        4096,
	}
}

// Precalculate derives the fixed buffer sizes from the configured limits.
// It is idempotent and cheap; the builder calls it once per server build.
func (l ReqLimits) Precalculate() ReqLimits {
	// "METHOD" (up to 7) + SP + path/query (UrlSize) + SP + "HTTP/1.1" (8) + CRLF (2)
	// matches the source's flat constant: 19 + url_size covers the fixed
	// punctuation/version/method overhead around the URL.
	firstLine := 19 + l.URLSize
	hLine := l.HeaderNameSize + l.HeaderValueSize + 4
	reqWithoutBody := firstLine + l.HeaderCount*hLine + 2

	l.precalc = reqLimitsPrecalc{
		buffer:         reqWithoutBody + l.BodySize,
		firstLine:      firstLine,
		reqWithoutBody: reqWithoutBody,
		hLine:          hLine,
	}
	return l
}

// FirstLine returns the precalculated maximum size of the request line.
func (l ReqLimits) FirstLine() int { return l.precalc.firstLine }

// HLine returns the precalculated maximum size of a single header line.
func (l ReqLimits) HLine() int { return l.precalc.hLine }

// Buffer returns the precalculated fixed size of the per-connection parser
// buffer: first-line + header_count*h_line + blank-CRLF + body_size.
func (l ReqLimits) Buffer() int {
	if l.precalc.buffer == 0 {
		return l.Precalculate().precalc.buffer
	}
	return l.precalc.buffer
}

// RespLimits bounds the growable response buffer's recycling behavior.
type RespLimits struct {
	// DefaultCapacity is the capacity a fresh response buffer starts with.
	DefaultCapacity int

	// MaxCapacity is the ceiling above which a response buffer is
	// discarded and replaced (rather than retained) between requests.
	MaxCapacity int
}

// DefaultRespLimits returns the library's default response limits.
func DefaultRespLimits() RespLimits {
	return RespLimits{
		DefaultCapacity: 1024,
		MaxCapacity:     8192,
	}
}
