// Package typename derives default keys from the dynamic type of a value.
package typename

import "reflect"

// Of returns the simple name of v's dynamic type with any pointer levels
// removed and without the package qualifier: *pkg.Widget → "Widget".
// It returns "" for nil and for unnamed types such as map[string]int.
func Of(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// IsHandle reports whether v is a non-nil pointer, the only kind of value
// object containers accept.
func IsHandle(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}

// Pointer returns the address held by a handle, or 0 if v is not one.
func Pointer(v any) uintptr {
	if !IsHandle(v) {
		return 0
	}
	return reflect.ValueOf(v).Pointer()
}

// ZeroSize reports whether v is a handle to a zero-size value. Distinct
// zero-size variables may share an address, so such handles cannot be told
// apart by Pointer.
func ZeroSize(v any) bool {
	return IsHandle(v) && reflect.TypeOf(v).Elem().Size() == 0
}
