package webcore

import (
	"bytes"
	"net"
	"unicode/utf8"

	"github.com/AmakeSashaDev/maker-web/internal/herrors"
)

// Request is a parsed HTTP request. Every byte-slice field aliases the
// connection's fixed read buffer: none of it may be retained past the
// call that produced it (typically the lifetime of one Handler.Handle
// invocation).
//
// # Wire format this parser accepts
//
// HTTP/1.x: "METHOD SP TARGET SP HTTP/1.1 CRLF" followed by zero or more
// "Name: value CRLF" header lines, a blank CRLF, and (only when
// Content-Length was present and non-zero) exactly that many body bytes.
// Line endings must be exactly CRLF; bare CR or LF do not terminate a
// line. Two or more consecutive slashes in the path is a parse error,
// contrary to RFC 3986's leniency here.
//
// HTTP/0.9+ (enabled only when the server is built with Http09Limits):
// "METHOD SP TARGET CRLF" with no headers and no body. A leading
// "/keep_alive" path segment is the dialect's only keep-alive signal and
// is stripped from every Url accessor.
//
// Chunked transfer-encoding, implicit-length bodies, and
// Expect: 100-continue are not supported; requests attempting them are
// rejected.
type Request struct {
	method  Method
	url     Url
	version Version

	headers       []Header
	hasContentLen bool
	contentLength int
	keepAlive     bool

	hasBody bool
	body    []byte

	ClientAddr net.Addr
	ServerAddr net.Addr
}

// NewRequest returns a Request with storage pre-sized per limits.
func NewRequest(limits ReqLimits) *Request {
	return &Request{
		url:     newURL(limits.URLParts, limits.URLQueryParts),
		headers: make([]Header, 0, limits.HeaderCount),
	}
}

// Reset clears a Request for reuse on the next parse, without
// reallocating its backing slices.
func (r *Request) Reset() {
	r.method = MethodGet
	r.url.reset()
	r.version = VersionHTTP11
	r.headers = r.headers[:0]
	r.hasContentLen = false
	r.contentLength = 0
	r.keepAlive = true
	r.hasBody = false
	r.body = nil
}

// Method returns the request method.
func (r *Request) Method() Method { return r.method }

// Url returns the parsed request target.
func (r *Request) Url() *Url { return &r.url }

// Version returns the protocol version this request was parsed under.
func (r *Request) Version() Version { return r.version }

// Header returns the first header value matching name, case-insensitively,
// via a linear scan. Returns nil, false if absent.
//
// Allocation behavior: 0 allocs/op.
func (r *Request) Header(name []byte) ([]byte, bool) {
	for _, h := range r.headers {
		if bytes.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return nil, false
}

// HeaderStr is the string-keyed convenience form of Header.
func (r *Request) HeaderStr(name string) ([]byte, bool) {
	return r.Header([]byte(name))
}

// Headers returns every parsed header line, excluding Content-Length and
// Connection (which the parser interprets itself and removes from this
// list).
func (r *Request) Headers() []Header { return r.headers }

// ContentLength returns the value of the Content-Length header, if
// present.
func (r *Request) ContentLength() (int, bool) { return r.contentLength, r.hasContentLen }

// IsKeepAlive reports whether the connection should remain open after
// this request. Defaults to true for HTTP/1.1, false for HTTP/1.0, and
// the HTTP/0.9+ "/keep_alive" segment for that dialect.
func (r *Request) IsKeepAlive() bool { return r.keepAlive }

// Body returns the request body, if one was present.
func (r *Request) Body() ([]byte, bool) { return r.body, r.hasBody }

// ParseRequest parses one request from buf[:n] into r. http09Enabled
// gates whether the headerless HTTP/0.9+ dialect is accepted; when false,
// a request missing " HTTP/1.x" is rejected as UnsupportedVersion.
func ParseRequest(r *Request, buf []byte, n int, limits ReqLimits, http09Enabled bool) error {
	data := buf[:n]

	firstLineMax := limits.FirstLine()
	searchSpace := data
	if len(searchSpace) > firstLineMax {
		searchSpace = searchSpace[:firstLineMax]
	}

	crlf := bytes.Index(searchSpace, []byte("\r\n"))
	if crlf == -1 {
		return herrors.InvalidVersion
	}

	line := data[:crlf]

	methodEnd := bytes.IndexByte(line, ' ')
	if methodEnd == -1 {
		return herrors.InvalidMethod
	}

	method, err := ParseMethod(line[:methodEnd])
	if err != nil {
		return err
	}
	r.method = method

	rest := line[methodEnd+1:]

	var target, versionTail []byte
	hasVersionTail := false
	if sp := bytes.IndexByte(rest, ' '); sp != -1 {
		target = rest[:sp]
		versionTail = rest[sp+1:]
		hasVersionTail = true
	} else {
		target = rest
	}

	if len(target) == 0 || target[0] != '/' {
		return herrors.InvalidURL
	}
	if len(target) > limits.URLSize {
		return herrors.InvalidURL
	}

	if err := parseURLTarget(&r.url, target, limits); err != nil {
		return err
	}

	isHTTP09 := false
	switch {
	case hasVersionTail && bytes.Equal(versionTail, []byte("HTTP/1.1")):
		r.version = VersionHTTP11
		r.keepAlive = true
	case hasVersionTail && bytes.Equal(versionTail, []byte("HTTP/1.0")):
		r.version = VersionHTTP10
		r.keepAlive = false
	case !hasVersionTail && http09Enabled:
		r.version = VersionHTTP09
		isHTTP09 = true
		r.url.applyKeepAliveSegment()
		r.keepAlive = r.url.skipFirstSegment
	default:
		return herrors.UnsupportedVersion
	}

	if isHTTP09 {
		return nil
	}

	// Headers.
	pos := crlf + 2
	for {
		if len(data) < pos+2 {
			return herrors.InvalidHeader
		}
		if data[pos] == '\r' && data[pos+1] == '\n' {
			pos += 2
			break
		}

		if len(r.headers) >= limits.HeaderCount {
			return herrors.TooManyHeaders
		}

		lineEnd := bytes.Index(data[pos:], []byte("\r\n"))
		if lineEnd == -1 {
			return herrors.InvalidHeader
		}
		lineEnd += pos

		colon := bytes.IndexByte(data[pos:lineEnd], ':')
		if colon == -1 {
			return herrors.InvalidHeader
		}
		colon += pos

		name := data[pos:colon]
		if len(name) == 0 || len(name) > limits.HeaderNameSize {
			return herrors.InvalidHeader
		}
		if colon+2 > lineEnd {
			return herrors.InvalidHeader
		}
		value := data[colon+2 : lineEnd]
		if len(value) > limits.HeaderValueSize {
			return herrors.InvalidHeader
		}

		if err := r.parseHeaderLine(name, value, limits); err != nil {
			return err
		}

		pos = lineEnd + 2
	}

	if !utf8.Valid(data[:pos]) {
		return herrors.InvalidEncoding
	}

	return r.processBody(data, pos)
}

func (r *Request) parseHeaderLine(name, value []byte, limits ReqLimits) error {
	switch {
	case bytes.EqualFold(name, []byte("connection")):
		switch {
		case bytes.EqualFold(value, []byte("keep-alive")):
			r.keepAlive = true
		case bytes.EqualFold(value, []byte("close")):
			r.keepAlive = false
		default:
			return herrors.InvalidConnection
		}
	case bytes.EqualFold(name, []byte("content-length")):
		n, ok := parseUint(value)
		if !ok {
			return herrors.InvalidContentLength
		}
		if n > limits.BodySize {
			return herrors.BodyTooLarge
		}
		r.contentLength = n
		r.hasContentLen = true
	default:
		r.headers = append(r.headers, Header{Name: name, Value: value})
	}
	return nil
}

func (r *Request) processBody(data []byte, start int) error {
	available := len(data) - start

	switch {
	case r.hasContentLen && r.contentLength == 0 && available == 0:
		return nil
	case r.hasContentLen && r.contentLength == available:
		r.body = data[start:]
		r.hasBody = true
		return nil
	case r.hasContentLen:
		return herrors.BodyMismatch
	case available == 0:
		return nil
	default:
		return herrors.UnexpectedBody
	}
}

func parseUint(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// parseURLTarget fills u from target (path possibly followed by "?query"),
// enforcing the no-double-slash rule and the path-segment/query limits.
func parseURLTarget(u *Url, target []byte, limits ReqLimits) error {
	u.target = target

	path := target
	if idx := bytes.IndexByte(target, '?'); idx != -1 {
		path = target[:idx]
		u.path = path
		u.query = target[idx+1:]
		u.queryFull = target[idx:]
		u.hasQuery = true
	} else {
		u.path = path
	}

	segs := bytes.Split(path, []byte("/"))
	if len(segs) == 0 || len(segs[0]) != 0 {
		return herrors.InvalidURL
	}
	segs = segs[1:]
	if len(segs) > 0 && len(segs[len(segs)-1]) == 0 {
		segs = segs[:len(segs)-1]
	}
	for _, s := range segs {
		if len(s) == 0 {
			return herrors.DoubleSlash
		}
		if len(u.parts) >= cap(u.parts) {
			return herrors.InvalidURL
		}
		u.parts = append(u.parts, s)
	}

	if u.hasQuery && len(u.query) > 0 {
		if len(u.query) > limits.URLQuerySize {
			return herrors.InvalidURL
		}
		if err := ParseQuery(&u.queryParts, u.query, limits.URLQueryParts); err != nil {
			return herrors.InvalidQuery
		}
	}

	return nil
}
