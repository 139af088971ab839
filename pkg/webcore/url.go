package webcore

import "bytes"

// Url is a parsed request target, optimized for zero-copy routing: target,
// path, segments and query all alias the connection's read buffer and are
// valid only until the next request is parsed on that connection.
//
// In HTTP/0.9+, a leading "/keep_alive" path segment (the dialect's only
// keep-alive signal) is stripped from every accessor's view via
// skipFirstSegment, so callers never need to special-case it.
type Url struct {
	target     []byte
	path       []byte
	parts      [][]byte
	query      []byte // nil if absent, excludes the leading '?' (used for key=value parsing)
	queryFull  []byte // nil if absent, includes the leading '?' so Path()+QueryFull() reconstructs Target()
	hasQuery   bool
	queryParts QuerySlice

	skipFirstSegment bool
}

func newURL(partsCap, queryPartsCap int) Url {
	return Url{
		parts:      make([][]byte, 0, partsCap),
		queryParts: NewQuerySlice(queryPartsCap),
	}
}

func (u *Url) reset() {
	u.target = nil
	u.path = nil
	u.parts = u.parts[:0]
	u.query = nil
	u.queryFull = nil
	u.hasQuery = false
	u.queryParts = u.queryParts[:0]
	u.skipFirstSegment = false
}

func (u *Url) applyKeepAliveSegment() {
	if len(u.parts) > 0 && string(u.parts[0]) == "keep_alive" {
		u.skipFirstSegment = true
	}
}

func (u *Url) skip() int {
	if u.skipFirstSegment {
		return 1
	}
	return 0
}

// Target returns the raw request target, e.g. "/api/users/123?sort=name".
func (u *Url) Target() []byte {
	if u.skipFirstSegment {
		// "/keep_alive" is 11 bytes; dropping it also drops its leading '/'.
		return u.target[11:]
	}
	return u.target
}

// Path returns the path component without the query string.
func (u *Url) Path() []byte {
	if u.skipFirstSegment {
		return u.path[11:]
	}
	return u.path
}

// PathSegment returns the path segment at index, or nil if out of range.
// Segments are the parts between '/' characters and exclude the
// "keep_alive" marker segment in HTTP/0.9+.
func (u *Url) PathSegment(index int) []byte {
	i := index + u.skip()
	if i < 0 || i >= len(u.parts) {
		return nil
	}
	return u.parts[i]
}

// PathSegments returns all path segments.
func (u *Url) PathSegments() [][]byte {
	return u.parts[u.skip():]
}

// Matches reports whether the path segments exactly equal pattern.
func (u *Url) Matches(pattern ...string) bool {
	segs := u.PathSegments()
	if len(segs) != len(pattern) {
		return false
	}
	for i, p := range pattern {
		if string(segs[i]) != p {
			return false
		}
	}
	return true
}

// StartsWith reports whether the path segments begin with pattern.
func (u *Url) StartsWith(pattern ...string) bool {
	segs := u.PathSegments()
	if len(pattern) > len(segs) {
		return false
	}
	for i, p := range pattern {
		if string(segs[i]) != p {
			return false
		}
	}
	return true
}

// EndsWith reports whether the path segments end with pattern.
func (u *Url) EndsWith(pattern ...string) bool {
	segs := u.PathSegments()
	if len(pattern) > len(segs) {
		return false
	}
	offset := len(segs) - len(pattern)
	for i, p := range pattern {
		if string(segs[offset+i]) != p {
			return false
		}
	}
	return true
}

// QueryFull returns the full query string including the leading '?', or nil
// if the target had none. Path() + QueryFull() reconstructs Target().
func (u *Url) QueryFull() []byte {
	if !u.hasQuery {
		return nil
	}
	return u.queryFull
}

// Query returns the first value for the given query key, or nil and false
// if the key was not present. Lookup is case-sensitive.
func (u *Url) Query(key []byte) ([]byte, bool) {
	for _, p := range u.queryParts {
		if bytes.Equal(p.Key, key) {
			return p.Value, true
		}
	}
	return nil, false
}

// QueryStr is the string-keyed convenience form of Query.
func (u *Url) QueryStr(key string) ([]byte, bool) {
	return u.Query([]byte(key))
}
