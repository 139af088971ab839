package webcore

import "strconv"

// Writable is anything that can append its wire representation to a
// growing response buffer without an intermediate allocation. Response
// header and body methods accept any Writable, so callers can pass a
// string, a number, or a bool interchangeably.
type Writable interface {
	AppendTo(dst []byte) []byte
}

// Bytes wraps a raw byte slice as a Writable.
type Bytes []byte

func (v Bytes) AppendTo(dst []byte) []byte { return append(dst, v...) }

// Str wraps a string as a Writable.
type Str string

func (v Str) AppendTo(dst []byte) []byte { return append(dst, v...) }

// Bool wraps a bool as a Writable, rendering "true"/"false".
type Bool bool

func (v Bool) AppendTo(dst []byte) []byte {
	if v {
		return append(dst, "true"...)
	}
	return append(dst, "false"...)
}

// Int wraps a signed integer as a Writable.
type Int int64

func (v Int) AppendTo(dst []byte) []byte { return strconv.AppendInt(dst, int64(v), 10) }

// Uint wraps an unsigned integer as a Writable.
type Uint uint64

func (v Uint) AppendTo(dst []byte) []byte { return strconv.AppendUint(dst, uint64(v), 10) }

// Rune wraps a single rune as a Writable, appended as UTF-8.
type Rune rune

func (v Rune) AppendTo(dst []byte) []byte { return append(dst, string(rune(v))...) }
