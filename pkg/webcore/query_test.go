package webcore

import (
	"errors"
	"testing"
)

func str2(p QueryParam) (string, string) {
	return string(p.Key), string(p.Value)
}

func TestParseQueryBasic(t *testing.T) {
	cases := []string{"a=1&b=2", "?a=1&b=2"}

	for _, line := range cases {
		q := NewQuerySlice(8)
		if err := ParseQuery(&q, []byte(line), 8); err != nil {
			t.Fatalf("ParseQuery(%q): %v", line, err)
		}
		if len(q) != 2 {
			t.Fatalf("len = %d, want 2", len(q))
		}
		if k, v := str2(q[0]); k != "a" || v != "1" {
			t.Errorf("q[0] = %q,%q", k, v)
		}
		if k, v := str2(q[1]); k != "b" || v != "2" {
			t.Errorf("q[1] = %q,%q", k, v)
		}
	}
}

func TestParseQueryFull(t *testing.T) {
	line := []byte("flag&empty=&=val&&key=value")
	q := NewQuerySlice(10)
	if err := ParseQuery(&q, line, 10); err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}

	want := []QueryParam{
		{[]byte("flag"), []byte("")},
		{[]byte("empty"), []byte("")},
		{[]byte(""), []byte("val")},
		{[]byte(""), []byte("")},
		{[]byte("key"), []byte("value")},
	}
	if len(q) != len(want) {
		t.Fatalf("len = %d, want %d", len(q), len(want))
	}
	for i := range want {
		gk, gv := str2(q[i])
		wk, wv := str2(want[i])
		if gk != wk || gv != wv {
			t.Errorf("q[%d] = %q,%q want %q,%q", i, gk, gv, wk, wv)
		}
	}
}

func TestParseQueryLimitExceeded(t *testing.T) {
	q := NewQuerySlice(1)
	err := ParseQuery(&q, []byte("a&a"), 1)
	if !errors.Is(err, ErrQueryOverLimit) {
		t.Fatalf("err = %v, want ErrQueryOverLimit", err)
	}
}

func TestParseQueryEmpty(t *testing.T) {
	q := NewQuerySlice(10)
	err := ParseQuery(&q, []byte(""), 10)
	if !errors.Is(err, ErrQueryEmpty) {
		t.Fatalf("err = %v, want ErrQueryEmpty", err)
	}
}

func TestParseQueryMapDedup(t *testing.T) {
	q := NewQueryMap(8)
	if err := ParseQuery(q, []byte("key=1&key=2"), 8); err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("len = %d, want 1", q.Len())
	}
	if string(q["key"]) != "2" {
		t.Errorf("q[key] = %q, want 2", q["key"])
	}
}
