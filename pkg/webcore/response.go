package webcore

import "strconv"

// responseState tracks where a Response sits in its build sequence. The
// sequence is strict: Status moves Clean -> Headers, Body/Http09 moves
// Headers/Clean -> Complete. Calling a method out of order panics rather
// than silently producing a malformed response.
type responseState uint8

const (
	responseClean responseState = iota
	responseHeaders
	responseComplete
)

const contentLengthWidth = 10

// Handled is a zero-size proof token returned only by the methods that
// finalize a Response (Body, BodyWith, Http09, Http09With, Http09Status,
// Http09Msg). A Handler or
// ConnectionFilter must return one, which by construction means the
// Response it was given really was brought to completion.
type Handled struct{}

// Response is a growable wire-format response buffer, built in strict
// order: Status, then zero or more Header calls, then exactly one Body (or
// BodyWith). HTTP/0.9+ skips straight from Clean to Complete via Http09.
//
// The content-length value is back-patched: startBodyHeaders writes a
// contentLengthWidth-byte zero-padded placeholder, and the body-closing
// step overwrites it once the final length is known, avoiding a second
// buffer pass.
type Response struct {
	buffer   []byte
	version  Version
	keepAlive bool

	positLength int // offset of the content-length placeholder digits
	startBody   int // offset where the body begins

	state responseState
}

// NewResponse returns a Response with its buffer pre-sized to limits'
// default capacity. Version defaults to HTTP/1.1 and keep-alive defaults
// to true, matching what a fresh connection assumes before its first
// request is parsed.
func NewResponse(limits RespLimits) *Response {
	return &Response{
		buffer:    make([]byte, 0, limits.DefaultCapacity),
		version:   VersionHTTP11,
		keepAlive: true,
	}
}

// Reset prepares r for building the next response. If the buffer grew
// past limits.MaxCapacity it is discarded and replaced with a fresh one at
// the default capacity, so one oversized response doesn't permanently
// inflate every later response on the connection; otherwise the existing
// array is kept and just truncated. Version and keep-alive are left
// untouched — the connection engine sets those explicitly via SetVersion/
// SetKeepAlive once a request has actually been parsed.
func (r *Response) Reset(limits RespLimits) {
	if cap(r.buffer) > limits.MaxCapacity {
		r.buffer = make([]byte, 0, limits.DefaultCapacity)
	} else {
		r.buffer = r.buffer[:0]
	}
	r.positLength = 0
	r.startBody = 0
	r.state = responseClean
}

// SetVersion sets the protocol version this response is built for. Must
// be called, if at all, while the response is Clean.
func (r *Response) SetVersion(version Version) {
	if r.state != responseClean {
		panic("webcore: SetVersion called out of order")
	}
	r.version = version
}

// SetKeepAlive sets the connection's keep-alive decision for this
// response, normally mirroring the parsed request's IsKeepAlive.
func (r *Response) SetKeepAlive(keepAlive bool) {
	if r.state == responseComplete {
		panic("webcore: SetKeepAlive called after response is complete")
	}
	r.keepAlive = keepAlive
}

// Close marks the connection for closure after this response is sent,
// regardless of what the request asked for. Must be called before the
// response reaches the Complete state.
func (r *Response) Close() {
	if r.state == responseComplete {
		panic("webcore: Close called after response is complete")
	}
	r.keepAlive = false
}

// KeepAlive reports whether the connection should remain open once this
// response is sent. Reflects the value last passed to SetKeepAlive (true
// for a fresh Response), unless Close has overridden it.
func (r *Response) KeepAlive() bool { return r.keepAlive }

// Version returns the protocol version this response is built for.
func (r *Response) Version() Version { return r.version }

// Bytes returns the built response wire bytes. Valid only once the
// response is Complete.
func (r *Response) Bytes() []byte {
	if r.state != responseComplete {
		panic("webcore: Bytes called before response is complete")
	}
	return r.buffer
}

// Status writes the status line and moves the response into the Headers
// state. Must be called exactly once, first, and only for HTTP/1.0 or
// HTTP/1.1 responses (use Http09/Http09With for the headerless dialect).
func (r *Response) Status(code StatusCode) *Response {
	if r.state != responseClean {
		panic("webcore: Status called out of order")
	}
	if r.version == VersionHTTP09 {
		panic("webcore: Status called on an HTTP/0.9+ response")
	}
	r.buffer = append(r.buffer, code.FirstLine(r.version)...)
	r.state = responseHeaders
	return r
}

// Header appends one "name: value\r\n" line. Must be called after Status
// and before Body/BodyWith.
func (r *Response) Header(name string, value Writable) *Response {
	if r.state != responseHeaders {
		panic("webcore: Header called out of order")
	}
	r.buffer = append(r.buffer, name...)
	r.buffer = append(r.buffer, ':', ' ')
	r.buffer = value.AppendTo(r.buffer)
	r.buffer = append(r.buffer, '\r', '\n')
	return r
}

// HeaderMulti appends a header whose value is the comma-joined rendering
// of values, e.g. HeaderMulti("vary", Str("accept"), Str("accept-encoding")).
func (r *Response) HeaderMulti(name string, values ...Writable) *Response {
	if r.state != responseHeaders {
		panic("webcore: HeaderMulti called out of order")
	}
	r.buffer = append(r.buffer, name...)
	r.buffer = append(r.buffer, ':', ' ')
	for i, v := range values {
		if i > 0 {
			r.buffer = append(r.buffer, ',', ' ')
		}
		r.buffer = v.AppendTo(r.buffer)
	}
	r.buffer = append(r.buffer, '\r', '\n')
	return r
}

// HeaderParams appends a header with semicolon-separated key=value
// parameters, e.g. HeaderParams("content-type", Str("text/html"), [2]string{"charset", "utf-8"}).
func (r *Response) HeaderParams(name string, base Writable, params ...[2]string) *Response {
	if r.state != responseHeaders {
		panic("webcore: HeaderParams called out of order")
	}
	r.buffer = append(r.buffer, name...)
	r.buffer = append(r.buffer, ':', ' ')
	r.buffer = base.AppendTo(r.buffer)
	for _, p := range params {
		r.buffer = append(r.buffer, ';', ' ')
		r.buffer = append(r.buffer, p[0]...)
		r.buffer = append(r.buffer, '=')
		r.buffer = append(r.buffer, p[1]...)
	}
	r.buffer = append(r.buffer, '\r', '\n')
	return r
}

// connectionHeader reports the "connection" header value this response
// should send given its version and keep-alive decision, or ok=false when
// no such header applies (HTTP/1.1 keep-alive, or HTTP/0.9+).
func (r *Response) connectionHeader() (value string, ok bool) {
	switch r.version {
	case VersionHTTP11:
		if r.keepAlive {
			return "", false
		}
		return "close", true
	case VersionHTTP10:
		if r.keepAlive {
			return "keep-alive", true
		}
		return "close", true
	default:
		return "", false
	}
}

// startBodyHeaders writes the connection header (if any) and the
// content-length placeholder, recording positLength/startBody for the
// later back-patch.
func (r *Response) startBodyHeaders() {
	if v, ok := r.connectionHeader(); ok {
		r.buffer = append(r.buffer, "connection: "...)
		r.buffer = append(r.buffer, v...)
		r.buffer = append(r.buffer, '\r', '\n')
	}

	r.buffer = append(r.buffer, "content-length: "...)
	r.positLength = len(r.buffer)
	for i := 0; i < contentLengthWidth; i++ {
		r.buffer = append(r.buffer, '0')
	}
	r.buffer = append(r.buffer, '\r', '\n', '\r', '\n')
	r.startBody = len(r.buffer)
}

// endBody back-patches the content-length placeholder with the actual
// body length and moves the response to Complete.
func (r *Response) endBody() {
	bodyLen := len(r.buffer) - r.startBody
	digits := strconv.AppendUint(nil, uint64(bodyLen), 10)
	if len(digits) > contentLengthWidth {
		panic("webcore: body length exceeds content-length field width")
	}
	dst := r.buffer[r.positLength : r.positLength+contentLengthWidth]
	pad := contentLengthWidth - len(digits)
	for i := 0; i < pad; i++ {
		dst[i] = '0'
	}
	copy(dst[pad:], digits)
	r.state = responseComplete
}

// Body writes data as the response body, having already closed the
// headers section with the connection/content-length lines. Must be
// called exactly once, after Status and any Header calls.
func (r *Response) Body(data Writable) Handled {
	if r.state != responseHeaders {
		panic("webcore: Body called out of order")
	}
	r.startBodyHeaders()
	r.buffer = data.AppendTo(r.buffer)
	r.endBody()
	return Handled{}
}

// BodyWith writes the body via a callback that appends directly to an
// internal buffer, for bodies assembled from multiple pieces without an
// intermediate Writable allocation.
func (r *Response) BodyWith(f func(dst []byte) []byte) Handled {
	if r.state != responseHeaders {
		panic("webcore: BodyWith called out of order")
	}
	r.startBodyHeaders()
	r.buffer = f(r.buffer)
	r.endBody()
	return Handled{}
}

// Http09 writes data as the entire HTTP/0.9+ response: no status line, no
// headers, just the raw bytes. Must be called on a Clean HTTP/0.9+
// response.
func (r *Response) Http09(data Writable) Handled {
	if r.version != VersionHTTP09 {
		panic("webcore: Http09 called on a versioned response")
	}
	if r.state != responseClean {
		panic("webcore: Http09 called out of order")
	}
	r.buffer = data.AppendTo(r.buffer)
	r.state = responseComplete
	return Handled{}
}

// Http09With is the callback form of Http09.
func (r *Response) Http09With(f func(dst []byte) []byte) Handled {
	if r.version != VersionHTTP09 {
		panic("webcore: Http09With called on a versioned response")
	}
	if r.state != responseClean {
		panic("webcore: Http09With called out of order")
	}
	r.buffer = f(r.buffer)
	r.state = responseComplete
	return Handled{}
}

// Http09Status writes a semantic-prefixed status response in HTTP/0.9+
// format and finalizes it, e.g. "SUCCESS: 200 OK\r\n" or
// "CLIENT_ERROR: 404 Not Found\r\n" — see StatusCode.http09Prefix for the
// prefix-by-range rule. Must be called on a Clean HTTP/0.9+ response.
func (r *Response) Http09Status(status StatusCode) Handled {
	if r.version != VersionHTTP09 {
		panic("webcore: Http09Status called on a versioned response")
	}
	if r.state != responseClean {
		panic("webcore: Http09Status called out of order")
	}
	r.buffer = append(r.buffer, status.http09Prefix()...)
	r.buffer = append(r.buffer, status.FirstLine(VersionHTTP09)...)
	r.state = responseComplete
	return Handled{}
}

// Http09Msg writes a semantic-prefixed custom message in HTTP/0.9+ format
// and finalizes it, e.g. "CLIENT_ERROR: 400 invalid query parameters\r\n".
// Must be called on a Clean HTTP/0.9+ response.
func (r *Response) Http09Msg(status StatusCode, value Writable) Handled {
	if r.version != VersionHTTP09 {
		panic("webcore: Http09Msg called on a versioned response")
	}
	if r.state != responseClean {
		panic("webcore: Http09Msg called out of order")
	}
	r.buffer = append(r.buffer, status.http09Prefix()...)
	r.buffer = append(r.buffer, status.codeSpaced()...)
	r.buffer = value.AppendTo(r.buffer)
	r.buffer = append(r.buffer, '\r', '\n')
	r.state = responseComplete
	return Handled{}
}
