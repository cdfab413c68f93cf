package reactive

import "reflect"

// Same reports whether writing b over a is a no-op. Objects, maps, slices,
// pointers and channels compare by reference, comparable values by ==.
// Functions never compare equal. A raw map is the same as the Object that
// was built from it.
func Same(a, b any) bool {
	if o, ok := a.(*Object); ok {
		return o.is(b)
	}
	if o, ok := b.(*Object); ok {
		return o.is(a)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.UnsafePointer() == vb.UnsafePointer() && va.Len() == vb.Len()
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}
