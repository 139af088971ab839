package webcore

import (
	"errors"
	"testing"

	"github.com/AmakeSashaDev/maker-web/internal/herrors"
)

func mustParse(t *testing.T, raw string, http09 bool) *Request {
	t.Helper()
	limits := DefaultReqLimits().Precalculate()
	req := NewRequest(limits)
	buf := make([]byte, limits.Buffer())
	n := copy(buf, raw)
	if err := ParseRequest(req, buf, n, limits, http09); err != nil {
		t.Fatalf("ParseRequest(%q): %v", raw, err)
	}
	return req
}

func TestParseRequestBasicGet(t *testing.T) {
	req := mustParse(t, "GET /api/users/123?sort=name HTTP/1.1\r\nHost: example.com\r\n\r\n", false)

	if req.Method() != MethodGet {
		t.Errorf("Method = %v", req.Method())
	}
	if req.Version() != VersionHTTP11 {
		t.Errorf("Version = %v", req.Version())
	}
	if !req.IsKeepAlive() {
		t.Error("expected keep-alive true by default on HTTP/1.1")
	}
	if got, ok := req.HeaderStr("host"); !ok || string(got) != "example.com" {
		t.Errorf("Host header = %q, %v", got, ok)
	}
	if !req.Url().Matches("api", "users", "123") {
		t.Error("path segments mismatch")
	}
	if v, ok := req.Url().QueryStr("sort"); !ok || string(v) != "name" {
		t.Errorf("query sort = %q", v)
	}
}

func TestParseRequestHTTP10NoKeepAlive(t *testing.T) {
	req := mustParse(t, "GET / HTTP/1.0\r\n\r\n", false)
	if req.IsKeepAlive() {
		t.Error("HTTP/1.0 should default to non-keep-alive")
	}
}

func TestParseRequestConnectionHeader(t *testing.T) {
	req := mustParse(t, "GET / HTTP/1.0\r\nConnection: keep-alive\r\n\r\n", false)
	if !req.IsKeepAlive() {
		t.Error("explicit keep-alive header should override HTTP/1.0 default")
	}
}

func TestParseRequestWithBody(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"
	req := mustParse(t, raw, false)

	body, ok := req.Body()
	if !ok || string(body) != "hello" {
		t.Errorf("Body() = %q, %v", body, ok)
	}
}

func TestParseRequestBodyMismatch(t *testing.T) {
	limits := DefaultReqLimits().Precalculate()
	req := NewRequest(limits)
	buf := make([]byte, limits.Buffer())
	raw := "POST /submit HTTP/1.1\r\nContent-Length: 10\r\n\r\nhello"
	n := copy(buf, raw)

	err := ParseRequest(req, buf, n, limits, false)
	if !errors.Is(err, herrors.BodyMismatch) {
		t.Fatalf("err = %v, want BodyMismatch", err)
	}
}

func TestParseRequestDoubleSlash(t *testing.T) {
	limits := DefaultReqLimits().Precalculate()
	req := NewRequest(limits)
	buf := make([]byte, limits.Buffer())
	raw := "GET //api HTTP/1.1\r\n\r\n"
	n := copy(buf, raw)

	err := ParseRequest(req, buf, n, limits, false)
	if !errors.Is(err, herrors.DoubleSlash) {
		t.Fatalf("err = %v, want DoubleSlash", err)
	}
}

func TestParseRequestHTTP09KeepAlive(t *testing.T) {
	req := mustParse(t, "GET /keep_alive/api/users\r\n", true)

	if req.Version() != VersionHTTP09 {
		t.Errorf("Version = %v", req.Version())
	}
	if !req.IsKeepAlive() {
		t.Error("expected keep-alive via /keep_alive segment")
	}
	if !req.Url().Matches("api", "users") {
		t.Errorf("segments = %v", req.Url().PathSegments())
	}
}

func TestParseRequestHTTP09Disabled(t *testing.T) {
	limits := DefaultReqLimits().Precalculate()
	req := NewRequest(limits)
	buf := make([]byte, limits.Buffer())
	raw := "GET /api\r\n"
	n := copy(buf, raw)

	err := ParseRequest(req, buf, n, limits, false)
	if !errors.Is(err, herrors.UnsupportedVersion) {
		t.Fatalf("err = %v, want UnsupportedVersion", err)
	}
}

func TestRequestReset(t *testing.T) {
	limits := DefaultReqLimits().Precalculate()
	req := NewRequest(limits)
	buf := make([]byte, limits.Buffer())
	n := copy(buf, "GET /a/b HTTP/1.1\r\nX-Foo: bar\r\n\r\n")
	if err := ParseRequest(req, buf, n, limits, false); err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}

	req.Reset()

	if req.Method() != MethodGet {
		t.Errorf("Method after reset = %v", req.Method())
	}
	if len(req.Headers()) != 0 {
		t.Errorf("Headers after reset = %v", req.Headers())
	}
	if _, ok := req.Body(); ok {
		t.Error("Body present after reset")
	}
}
