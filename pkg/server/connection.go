package server

import (
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/AmakeSashaDev/maker-web/internal/herrors"
	"github.com/AmakeSashaDev/maker-web/pkg/webcore"
)

// connMeta tracks per-connection lifetime bookkeeping independent of the
// user's ConnectionData.
type connMeta struct {
	created      time.Time
	requestCount int
}

func (m *connMeta) reset() {
	m.created = time.Now()
	m.requestCount = 0
}

// httpConnection is one pre-allocated worker slot: a long-lived read
// buffer, request/response builders, and the user's connection state. It
// is owned by exactly one worker goroutine for its entire lifetime and is
// never shared.
type httpConnection[S ConnectionData] struct {
	handler Handler[S]
	data    S

	meta connMeta
	buf  []byte

	request  *webcore.Request
	response *webcore.Response

	connLimits   webcore.ConnLimits
	http09Limits *webcore.Http09Limits
	reqLimits    webcore.ReqLimits
	respLimits   webcore.RespLimits

	jsonErrors bool
	log        zerolog.Logger
}

func newHTTPConnection[S ConnectionData](handler Handler[S], data S, limits allLimits, log zerolog.Logger) *httpConnection[S] {
	return &httpConnection[S]{
		handler: handler,
		data:    data,

		buf: make([]byte, limits.req.Buffer()),

		request:  webcore.NewRequest(limits.req),
		response: webcore.NewResponse(limits.resp),

		connLimits:   limits.conn,
		http09Limits: limits.http09,
		reqLimits:    limits.req,
		respLimits:   limits.resp,

		jsonErrors: limits.server.JSONErrors,
		log:        log,
	}
}

// run drives one TCP connection through as many keep-alive requests as
// its limits allow. A panic inside the user handler is recovered here:
// the connection is dropped and the worker returns to the pool ready for
// its next stream.
func (c *httpConnection[S]) run(conn net.Conn) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error().Interface("panic", rec).Msg("handler panicked, dropping connection")
		}
	}()

	c.meta.reset()
	c.data.Reset()

	for !c.isExpired() {
		c.request.Reset()

		n, err := c.fillBuffer(conn)
		if err != nil {
			c.log.Debug().Err(err).Msg("read failed, closing connection")
			return
		}
		if n == 0 {
			return
		}

		http09Enabled := c.http09Limits != nil
		if perr := webcore.ParseRequest(c.request, c.buf, n, c.reqLimits, http09Enabled); perr != nil {
			c.writeParseError(conn, perr)
			return
		}

		c.response.Reset(c.respLimits)
		c.response.SetVersion(c.request.Version())
		c.response.SetKeepAlive(c.request.IsKeepAlive())
		c.handler.Handle(c.data, c.request, c.response)

		if werr := c.writeAll(conn, c.response.Bytes()); werr != nil {
			c.log.Debug().Err(werr).Msg("write failed, closing connection")
			return
		}

		if !c.request.IsKeepAlive() {
			return
		}
		c.meta.requestCount++
	}
}

func (c *httpConnection[S]) fillBuffer(conn net.Conn) (int, error) {
	if err := conn.SetReadDeadline(time.Now().Add(c.connLimits.SocketReadTimeout)); err != nil {
		return 0, herrors.Wrap(herrors.IO, err)
	}
	n, err := conn.Read(c.buf)
	if err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, herrors.Wrap(herrors.IO, err)
	}
	return n, nil
}

func (c *httpConnection[S]) writeAll(conn net.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(c.connLimits.SocketWriteTimeout)); err != nil {
		return herrors.Wrap(herrors.IO, err)
	}
	_, err := conn.Write(data)
	if err != nil {
		return herrors.Wrap(herrors.IO, err)
	}
	return nil
}

func (c *httpConnection[S]) writeParseError(conn net.Conn, err error) {
	kind, ok := err.(herrors.Kind)
	if !ok {
		if he, isHTTPErr := err.(*herrors.HTTPError); isHTTPErr {
			kind = he.Kind
		} else {
			kind = herrors.IO
		}
	}
	canned := herrors.CannedResponse(kind, c.request.Version().HerrorsVersion(), c.jsonErrors)
	_ = c.writeAll(conn, canned)
}

// isExpired mirrors the source's per-dialect expiration predicate: the
// HTTP/0.9+ limits replace the HTTP/1.x connection limits whenever the
// last parsed request used that dialect.
func (c *httpConnection[S]) isExpired() bool {
	if c.response.Version() == webcore.VersionHTTP09 {
		if c.http09Limits == nil {
			return true
		}
		return !c.response.KeepAlive() ||
			c.meta.requestCount >= c.http09Limits.MaxRequestsPerConnection ||
			time.Since(c.meta.created) > c.http09Limits.ConnectionLifetime
	}
	return !c.response.KeepAlive() ||
		c.meta.requestCount >= c.connLimits.MaxRequestsPerConnection ||
		time.Since(c.meta.created) > c.connLimits.ConnectionLifetime
}

