package webcore

import "testing"

func parseTestURL(t *testing.T, target string) *Url {
	t.Helper()
	u := newURL(8, 8)
	limits := DefaultReqLimits()
	limits.URLQueryParts = 8
	if err := parseURLTarget(&u, []byte(target), limits); err != nil {
		t.Fatalf("parse(%q): %v", target, err)
	}
	return &u
}

func TestUrlPathAndQuery(t *testing.T) {
	u := parseTestURL(t, "/api/users/123?sort=name&debug")

	if got := string(u.Path()); got != "/api/users/123" {
		t.Errorf("Path() = %q", got)
	}
	if got := string(u.Target()); got != "/api/users/123?sort=name&debug" {
		t.Errorf("Target() = %q", got)
	}
	if !u.Matches("api", "users", "123") {
		t.Error("Matches failed")
	}
	if !u.StartsWith("api", "users") {
		t.Error("StartsWith failed")
	}
	if !u.EndsWith("users", "123") {
		t.Error("EndsWith failed")
	}
	if v, ok := u.QueryStr("sort"); !ok || string(v) != "name" {
		t.Errorf("Query(sort) = %q, %v", v, ok)
	}
	if v, ok := u.QueryStr("debug"); !ok || string(v) != "" {
		t.Errorf("Query(debug) = %q, %v", v, ok)
	}
	if _, ok := u.QueryStr("name"); ok {
		t.Error("Query(name) should be absent")
	}
	if got := string(u.QueryFull()); got != "?sort=name&debug" {
		t.Errorf("QueryFull() = %q, want %q", got, "?sort=name&debug")
	}
	if got := string(u.Path()) + string(u.QueryFull()); got != string(u.Target()) {
		t.Errorf("Path()+QueryFull() = %q, want Target() = %q", got, u.Target())
	}
}

func TestUrlNoQuery(t *testing.T) {
	u := parseTestURL(t, "/api/users/123")
	if u.QueryFull() != nil {
		t.Errorf("QueryFull() = %q, want nil", u.QueryFull())
	}
}

func TestUrlKeepAliveSkip(t *testing.T) {
	u := parseTestURL(t, "/keep_alive/api/users")
	u.applyKeepAliveSegment()

	if got := string(u.Path()); got != "/api/users" {
		t.Errorf("Path() = %q", got)
	}
	if !u.Matches("api", "users") {
		t.Error("Matches after keep_alive strip failed")
	}
}

func TestParseMethod(t *testing.T) {
	cases := map[string]Method{
		"GET": MethodGet, "PUT": MethodPut, "POST": MethodPost,
		"HEAD": MethodHead, "PATCH": MethodPatch, "DELETE": MethodDelete,
		"OPTIONS": MethodOptions,
	}
	for raw, want := range cases {
		got, err := ParseMethod([]byte(raw))
		if err != nil {
			t.Fatalf("ParseMethod(%q): %v", raw, err)
		}
		if got != want {
			t.Errorf("ParseMethod(%q) = %v, want %v", raw, got, want)
		}
	}

	if _, err := ParseMethod([]byte("TRACE")); err == nil {
		t.Error("ParseMethod(TRACE) should fail")
	}
}

func TestStatusCodeFirstLine(t *testing.T) {
	line := StatusOK.FirstLine(VersionHTTP11)
	if string(line) != "HTTP/1.1 200 OK\r\n" {
		t.Errorf("FirstLine = %q", line)
	}

	line09 := StatusOK.FirstLine(VersionHTTP09)
	if string(line09) != " 200 OK\r\n" {
		t.Errorf("FirstLine(0.9) = %q", line09)
	}
}
