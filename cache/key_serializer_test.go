package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

type filter struct {
	Kind     string
	Active   bool
	internal int
}

func TestDefaultKeySerializer_SerializeKey(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	id := uuid.MustParse("6f1c1e0a-4a4e-4b57-9c1f-3f0f0d1d8b11")
	value := 42
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		method string
		args   []any
		want   string
	}{
		{name: "no args", method: "List", args: []any{}, want: "List"},
		{name: "single int", method: "GetByID", args: []any{42}, want: joinWithSeparator("GetByID", "42")},
		{
			name:   "multiple basic types",
			method: "Get",
			args:   []any{1, "hello", true, 3.14},
			want:   joinWithSeparator("Get", "1", "hello", "true", "3.14"),
		},
		{name: "nil interface", method: "Get", args: []any{nil}, want: joinWithSeparator("Get", "nil")},
		{name: "nil pointer", method: "Get", args: []any{(*int)(nil)}, want: joinWithSeparator("Get", "nil")},
		{name: "non-nil pointer", method: "Get", args: []any{&value}, want: joinWithSeparator("Get", "42")},
		{name: "nil slice", method: "Get", args: []any{([]int)(nil)}, want: joinWithSeparator("Get", "slice:nil")},
		{name: "nil map", method: "Get", args: []any{(map[string]int)(nil)}, want: joinWithSeparator("Get", "map:nil")},
		{name: "empty slice", method: "Get", args: []any{[]int{}}, want: joinWithSeparator("Get", "slice[0]:{}")},
		{
			name:   "nested slice",
			method: "Get",
			args:   []any{[][]int{{1, 2}, {3, 4}}},
			want:   joinWithSeparator("Get", "slice[2]:{slice[2]:{1,2},slice[2]:{3,4}}"),
		},
		{name: "array", method: "Get", args: []any{[2]string{"a", "b"}}, want: joinWithSeparator("Get", "array[2]:{a,b}")},
		{
			name:   "map sorted by key",
			method: "Get",
			args:   []any{map[string]int{"count": 10, "age": 25}},
			want:   joinWithSeparator("Get", "map[2]:{age=25,count=10}"),
		},
		{
			name:   "struct skips unexported fields",
			method: "Find",
			args:   []any{filter{Kind: "combo", Active: true, internal: 9}},
			want:   joinWithSeparator("Find", "struct:{Kind:combo,Active:true}"),
		},
		{name: "uuid uses canonical form", method: "Get", args: []any{id}, want: joinWithSeparator("Get", id.String())},
		{name: "pointer to uuid", method: "Get", args: []any{&id}, want: joinWithSeparator("Get", id.String())},
		{
			name:   "uuid slice",
			method: "Get",
			args:   []any{[]uuid.UUID{id}},
			want:   joinWithSeparator("Get", "slice[1]:{"+id.String()+"}"),
		},
		{
			name:   "decimal",
			method: "Price",
			args:   []any{decimal.RequireFromString("19.90")},
			want:   joinWithSeparator("Price", "19.9"),
		},
		{name: "time", method: "Since", args: []any{at}, want: joinWithSeparator("Since", at.String())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.method, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_Functions(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	testFunc := func() {}

	key1 := serializer.SerializeKey("GetWithFunc", testFunc)
	key2 := serializer.SerializeKey("GetWithFunc", testFunc)

	if key1 != key2 {
		t.Errorf("Function serialization should be stable: %v != %v", key1, key2)
	}

	funcPrefix := joinWithSeparator("GetWithFunc", "func") + ":"
	if !strings.HasPrefix(key1, funcPrefix) {
		t.Errorf("Function serialization should use func: prefix with pointer format, got: %v", key1)
	}

	ch := make(chan int)
	if key := serializer.SerializeKey("GetWithChannel", ch); !strings.HasPrefix(key, joinWithSeparator("GetWithChannel", "chan")+":") {
		t.Errorf("Channel should be serialized with chan: prefix, got: %v", key)
	}
}

func TestDefaultKeySerializer_Stability(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	args := []any{1, "hello", []int{1, 2, 3}, map[string]int{"a": 1, "b": 2, "c": 3}}

	first := serializer.SerializeKey("TestMethod", args...)
	for i := 0; i < 20; i++ {
		if got := serializer.SerializeKey("TestMethod", args...); got != first {
			t.Fatalf("Key serialization should be stable across calls: %v != %v", got, first)
		}
	}
}

func BenchmarkDefaultKeySerializer(b *testing.B) {
	serializer := NewDefaultKeySerializer()
	args := []any{1, "benchmark", []int{1, 2, 3}, map[string]int{"test": 1}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		serializer.SerializeKey("BenchmarkMethod", args...)
	}
}
