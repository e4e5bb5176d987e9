package adapters

import (
	"testing"
	"time"
)

func TestNormalizeValuePrimitivesPassThrough(t *testing.T) {
	cases := []interface{}{nil, true, "hello", 42, int64(7), 3.14}
	for _, in := range cases {
		if out := NormalizeValue(in); out != in {
			t.Errorf("NormalizeValue(%v) = %v, want unchanged", in, out)
		}
	}
}

func TestNormalizeValueTime(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	out := NormalizeValue(ts)

	s, ok := out.(string)
	if !ok {
		t.Fatalf("expected string, got %T", out)
	}
	if s != "2024-03-15T09:30:00Z" {
		t.Errorf("expected UTC RFC 3339 timestamp, got %q", s)
	}
}

func TestNormalizeValueBytes(t *testing.T) {
	out := NormalizeValue([]byte("plain text"))
	if out != "plain text" {
		t.Errorf("expected decoded text, got %v", out)
	}

	// Invalid UTF-8 bytes get a replacement character instead of an error
	out = NormalizeValue([]byte{0x68, 0x69, 0xff})
	s, ok := out.(string)
	if !ok {
		t.Fatalf("expected string, got %T", out)
	}
	if s != "hi�" {
		t.Errorf("expected replacement character for invalid byte, got %q", s)
	}
}

func TestNormalizeValueNested(t *testing.T) {
	in := map[string]interface{}{
		"tags": []interface{}{[]byte("a"), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	out, ok := NormalizeValue(in).(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", NormalizeValue(in))
	}
	tags, ok := out["tags"].([]interface{})
	if !ok {
		t.Fatalf("expected slice, got %T", out["tags"])
	}
	if tags[0] != "a" {
		t.Errorf("expected nested bytes decoded, got %v", tags[0])
	}
	if tags[1] != "2024-01-01T00:00:00Z" {
		t.Errorf("expected nested time formatted, got %v", tags[1])
	}
}

func TestNormalizeValueFallbackStringifies(t *testing.T) {
	type custom struct{ A int }
	out := NormalizeValue(custom{A: 1})
	if _, ok := out.(string); !ok {
		t.Errorf("expected fallback to string, got %T", out)
	}
}
