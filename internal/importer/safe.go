package importer

// safe.go holds iteration helpers that tolerate nil and wrong-shaped input.
//
// Upstream parsers hand us whatever the file contained, so every helper here
// treats a nil, non-slice, or non-map argument as "nothing to do" and turns
// a panic inside the callback into a logged warning. None of them ever
// propagates a panic to the caller.

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// SafeForEach calls fn for each element of input when input is a slice or
// array. Anything else is a no-op. A panic inside fn stops the iteration and
// is logged.
func SafeForEach(input any, fn func(item any, index int)) {
	if input == nil || fn == nil {
		return
	}
	v := reflect.ValueOf(input)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return
	}
	defer recoverLogged("SafeForEach")
	for i := 0; i < v.Len(); i++ {
		fn(v.Index(i).Interface(), i)
	}
}

// SafeMap applies fn to each element of in. If fn panics the partial output
// is discarded and an empty slice is returned.
func SafeMap[T, U any](in []T, fn func(item T, index int) U) (out []U) {
	if len(in) == 0 || fn == nil {
		return []U{}
	}
	defer func() {
		if r := recover(); r != nil {
			logRecovered("SafeMap", r)
			out = []U{}
		}
	}()
	out = make([]U, 0, len(in))
	for i, item := range in {
		out = append(out, fn(item, i))
	}
	return out
}

// SafeFilter returns the elements of in for which pred is true. If pred
// panics an empty slice is returned.
func SafeFilter[T any](in []T, pred func(item T, index int) bool) (out []T) {
	if len(in) == 0 || pred == nil {
		return []T{}
	}
	defer func() {
		if r := recover(); r != nil {
			logRecovered("SafeFilter", r)
			out = []T{}
		}
	}()
	out = make([]T, 0, len(in))
	for i, item := range in {
		if pred(item, i) {
			out = append(out, item)
		}
	}
	return out
}

// SafeGet walks a dotted path ("a.b.0.c") through nested maps and slices.
// It returns def when any segment is missing or the root is not a container.
func SafeGet(obj any, path string, def any) any {
	if obj == nil {
		return def
	}
	if path == "" {
		return obj
	}
	cur := obj
	for _, seg := range strings.Split(path, ".") {
		next, ok := child(cur, seg)
		if !ok {
			return def
		}
		cur = next
	}
	if cur == nil {
		return def
	}
	return cur
}

func child(container any, seg string) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case Row:
		v, ok := c[seg]
		return v, ok
	case Record:
		v, ok := c[seg]
		return v, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}

	v := reflect.ValueOf(container)
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := v.MapIndex(reflect.ValueOf(seg).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= v.Len() {
			return nil, false
		}
		return v.Index(i).Interface(), true
	}
	return nil, false
}

// IsEmpty reports whether v carries no usable data: nil, a blank string, or
// a zero-length slice, array or map. Zero numbers and false are not empty.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case Row:
		return len(x) == 0
	case Record:
		return len(x) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// toString renders a raw scalar as a string. Unsupported types fall back
// to fmt formatting via cast.
func toString(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

func recoverLogged(op string) {
	if r := recover(); r != nil {
		logRecovered(op, r)
	}
}

func logRecovered(op string, r any) {
	slog.Warn("recovered panic during iteration", "op", op, "panic", r)
}
