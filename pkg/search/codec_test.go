package search

import (
	"reflect"
	"testing"
)

func TestJSONCodecParse(t *testing.T) {
	codec := NewJSONCodec()

	tests := []struct {
		name   string
		search string
		want   Params
	}{
		{"empty", "", Params{}},
		{"leading question mark", "?a=1", Params{"a": float64(1)}},
		{"plain string", "q=hello", Params{"q": "hello"}},
		{"number", "page=3", Params{"page": float64(3)}},
		{"bool", "active=true", Params{"active": true}},
		{"array", "ids=%5B1%2C2%5D", Params{"ids": []any{float64(1), float64(2)}}},
		{"object", "filter=%7B%22a%22%3A1%7D", Params{"filter": map[string]any{"a": float64(1)}}},
		{"string that is not json", "v=042", Params{"v": "042"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Parse(tt.search)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.search, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.search, got, tt.want)
			}
		})
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := NewJSONCodec()

	params := []Params{
		{},
		{"q": "hello world"},
		{"page": float64(2), "limit": float64(50)},
		{"active": true, "archived": false},
		{"filter": map[string]any{"tags": []any{"go", "router"}, "depth": float64(3)}},
		{"v": "true"},  // string that looks like a bool
		{"n": "42"},    // string that looks like a number
		{"raw": "042"}, // not valid JSON, must stay a string
		{"empty": ""},
	}

	for _, p := range params {
		s, err := codec.Serialize(p)
		if err != nil {
			t.Fatalf("Serialize(%#v) error: %v", p, err)
		}
		got, err := codec.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", s, err)
		}
		if !Equal(got, p) {
			t.Errorf("round trip %#v -> %q -> %#v", p, s, got)
		}
	}
}

func TestJSONCodecSerializeStable(t *testing.T) {
	codec := NewJSONCodec()
	p := Params{"b": float64(2), "a": float64(1), "c": "x"}

	first, err := codec.Serialize(p)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		s, err := codec.Serialize(p)
		if err != nil {
			t.Fatal(err)
		}
		if s != first {
			t.Fatalf("serialization not stable: %q vs %q", s, first)
		}
	}
	if first != "a=1&b=2&c=x" {
		t.Errorf("Serialize = %q, want sorted keys", first)
	}
}

func TestMerge(t *testing.T) {
	base := Params{"a": float64(1), "b": "keep"}
	over := Params{"a": float64(2), "c": true, "b": nil}

	got := Merge(base, over)
	want := Params{"a": float64(2), "c": true}
	if !Equal(got, want) {
		t.Errorf("Merge = %#v, want %#v", got, want)
	}

	if base["a"] != float64(1) || len(base) != 2 {
		t.Error("Merge mutated its input")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b Params
		want bool
	}{
		{Params{}, nil, true},
		{Params{"a": float64(1)}, Params{"a": float64(1)}, true},
		{Params{"a": float64(1)}, Params{"a": float64(2)}, false},
		{Params{"a": float64(1)}, Params{"b": float64(1)}, false},
		{Params{"m": map[string]any{"x": "y"}}, Params{"m": map[string]any{"x": "y"}}, true},
	}

	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
