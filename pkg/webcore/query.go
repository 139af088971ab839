package webcore

import (
	"bytes"
	"errors"
)

// Query parameter parsing errors.
var (
	// ErrQueryOverLimit is returned when a query string contains more
	// parameters than the caller's limit allows.
	ErrQueryOverLimit = errors.New("query: parameter limit exceeded")

	// ErrQueryEmpty is returned when the query string is empty or
	// contains only a leading '?'.
	ErrQueryEmpty = errors.New("query: empty query string")
)

// QueryCollector receives parsed query parameters as zero-copy views into
// the original query bytes. Implementations choose their own storage:
// QuerySlice preserves order and duplicates, QueryMap deduplicates on key
// (last value wins).
type QueryCollector interface {
	// AddParam records one parsed key/value pair. Both slices alias the
	// original query bytes and must not be retained past its lifetime.
	AddParam(key, value []byte)

	// Len returns the current number of collected parameters.
	Len() int
}

// QuerySlice collects query parameters into an ordered slice, preserving
// duplicates and original order.
type QuerySlice []QueryParam

// QueryParam is one key/value pair parsed from a query string.
type QueryParam struct {
	Key   []byte
	Value []byte
}

// NewQuerySlice returns a QuerySlice pre-sized to the given capacity.
func NewQuerySlice(capacity int) QuerySlice {
	return make(QuerySlice, 0, capacity)
}

// AddParam implements QueryCollector.
func (q *QuerySlice) AddParam(key, value []byte) {
	*q = append(*q, QueryParam{Key: key, Value: value})
}

// Len implements QueryCollector.
func (q *QuerySlice) Len() int { return len(*q) }

// QueryMap collects query parameters into a map, deduplicating repeated
// keys (the last occurrence wins). Keys are converted to string, which
// allocates; prefer QuerySlice on hot paths that don't need dedup.
type QueryMap map[string][]byte

// NewQueryMap returns a QueryMap pre-sized to the given capacity.
func NewQueryMap(capacity int) QueryMap {
	return make(QueryMap, capacity)
}

// AddParam implements QueryCollector.
func (q QueryMap) AddParam(key, value []byte) {
	q[string(key)] = value
}

// Len implements QueryCollector.
func (q QueryMap) Len() int { return len(q) }

// ParseQuery parses a raw query string into result, honoring limit as the
// maximum number of parameters. A leading '?' is stripped automatically,
// so "?a=1" and "a=1" parse identically. Parsing is zero-copy: every key
// and value returned is a slice aliasing query, valid only as long as
// query itself is valid.
//
// Allocation behavior: 0 allocs/op when result is a pre-sized QuerySlice
// passed by pointer; QueryMap allocates one string per key.
func ParseQuery(result QueryCollector, query []byte, limit int) error {
	data := query
	if len(data) > 0 && data[0] == '?' {
		data = data[1:]
	}
	if len(data) == 0 {
		return ErrQueryEmpty
	}

	start := 0
	for start < len(data) {
		if result.Len() >= limit {
			return ErrQueryOverLimit
		}

		end := bytes.IndexByte(data[start:], '&')
		if end == -1 {
			end = len(data)
		} else {
			end += start
		}

		segment := data[start:end]
		eq := bytes.IndexByte(segment, '=')

		var key, value []byte
		if eq == -1 {
			key = segment
			value = data[end:end]
		} else {
			key = segment[:eq]
			value = segment[eq+1:]
		}

		result.AddParam(key, value)
		start = end + 1
	}

	return nil
}
