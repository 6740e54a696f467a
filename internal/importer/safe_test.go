package importer

import (
	"reflect"
	"testing"
)

func TestSafeForEach(t *testing.T) {
	t.Run("iterates slices", func(t *testing.T) {
		var got []int
		SafeForEach([]int{1, 2, 3}, func(item any, i int) { got = append(got, item.(int)*10+i) })
		if want := []int{10, 21, 32}; !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("ignores non-slices", func(t *testing.T) {
		for _, in := range []any{nil, "abc", 42, map[string]any{"a": 1}} {
			called := false
			SafeForEach(in, func(any, int) { called = true })
			if called {
				t.Errorf("callback called for %#v", in)
			}
		}
	})

	t.Run("contains panics", func(t *testing.T) {
		count := 0
		SafeForEach([]any{1, 2, 3}, func(_ any, i int) {
			count++
			if i == 1 {
				panic("boom")
			}
		})
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})
}

func TestSafeMap(t *testing.T) {
	double := func(n, _ int) int { return n * 2 }

	if got := SafeMap([]int{1, 2}, double); !reflect.DeepEqual(got, []int{2, 4}) {
		t.Errorf("SafeMap = %v", got)
	}
	if got := SafeMap[int, int](nil, double); got == nil || len(got) != 0 {
		t.Errorf("SafeMap(nil) = %#v, want empty slice", got)
	}

	got := SafeMap([]int{1, 2, 3}, func(n, _ int) int {
		if n == 3 {
			panic("boom")
		}
		return n
	})
	if got == nil || len(got) != 0 {
		t.Errorf("SafeMap after panic = %#v, want empty slice", got)
	}
}

func TestSafeFilter(t *testing.T) {
	even := func(n, _ int) bool { return n%2 == 0 }

	if got := SafeFilter([]int{1, 2, 3, 4}, even); !reflect.DeepEqual(got, []int{2, 4}) {
		t.Errorf("SafeFilter = %v", got)
	}

	got := SafeFilter([]int{2, 4}, func(n, _ int) bool {
		if n == 4 {
			panic("boom")
		}
		return true
	})
	if len(got) != 0 {
		t.Errorf("SafeFilter after panic = %v, want empty", got)
	}
}

func TestSafeGet(t *testing.T) {
	obj := map[string]any{
		"customer": map[string]any{
			"name":   "Ana",
			"phones": []any{"611", "622"},
			"tags":   []string{"vip"},
			"empty":  nil,
		},
		"row": Row{"city": "Madrid"},
	}

	tests := []struct {
		path string
		want any
	}{
		{"customer.name", "Ana"},
		{"customer.phones.1", "622"},
		{"customer.tags.0", "vip"},
		{"row.city", "Madrid"},
		{"customer.phones.5", "def"},
		{"customer.phones.x", "def"},
		{"customer.missing", "def"},
		{"customer.name.first", "def"},
		{"customer.empty", "def"},
	}

	for _, tt := range tests {
		if got := SafeGet(obj, tt.path, "def"); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SafeGet(%q) = %#v, want %#v", tt.path, got, tt.want)
		}
	}

	if got := SafeGet(nil, "a", "def"); got != "def" {
		t.Errorf("SafeGet(nil) = %v", got)
	}
	if got := SafeGet(42, "a", "def"); got != "def" {
		t.Errorf("SafeGet(42) = %v", got)
	}
}

func TestIsEmpty(t *testing.T) {
	var nilMap map[string]int
	var nilPtr *int

	tests := []struct {
		in   any
		want bool
	}{
		{nil, true},
		{"", true},
		{"   ", true},
		{[]any{}, true},
		{map[string]any{}, true},
		{nilMap, true},
		{nilPtr, true},
		{[]string{}, true},
		{"x", false},
		{0, false},
		{false, false},
		{[]int{1}, false},
	}

	for _, tt := range tests {
		if got := IsEmpty(tt.in); got != tt.want {
			t.Errorf("IsEmpty(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
