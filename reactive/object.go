package reactive

import (
	"fmt"
	"reflect"
	"sort"
	"unsafe"
)

type property struct {
	dep   *Dep
	value any
}

// Object is a reactive key-value structure. Every key owns one Dep and one
// value slot; reads and writes must go through Get/Lookup and Set.
type Object struct {
	rs     *System
	origin unsafe.Pointer
	keys   []string
	props  map[string]*property
}

// MakeReactive instruments v. Maps with string keys become Objects, nested
// maps included; Objects are returned as they are. Any other value,
// nil included, is returned unchanged. A map that was made reactive before
// yields the same Object again, so aliases share one set of deps.
func (rs *System) MakeReactive(v any) any {
	return rs.makeReactive(v, rs.objects)
}

func (rs *System) makeReactive(v any, seen map[unsafe.Pointer]*Object) any {
	switch v := v.(type) {
	case nil:
		return nil
	case *Object:
		return v
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return v
	}
	if o, ok := seen[rv.UnsafePointer()]; ok {
		return o
	}

	o := &Object{
		rs:     rs,
		origin: rv.UnsafePointer(),
		keys:   make([]string, 0, rv.Len()),
		props:  make(map[string]*property, rv.Len()),
	}
	seen[o.origin] = o

	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		o.keys = append(o.keys, k)
		o.props[k] = &property{
			dep:   NewDep(),
			value: rs.makeReactive(iter.Value().Interface(), seen),
		}
	}
	sort.Strings(o.keys)
	return o
}

// NewObject is MakeReactive for a plain map.
func (rs *System) NewObject(data map[string]any) *Object {
	if data == nil {
		data = map[string]any{}
	}
	return rs.MakeReactive(data).(*Object)
}

func (o *Object) System() *System {
	return o.rs
}

// Lookup returns the value at key, registering the active observer with the
// key's Dep.
func (o *Object) Lookup(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	p, ok := o.props[key]
	if !ok {
		return nil, false
	}
	o.rs.depend(p.dep)
	return p.value, true
}

func (o *Object) Get(key string) any {
	v, _ := o.Lookup(key)
	return v
}

// Set stores v at key and notifies the key's observers, unless v is the same
// value already held. Errors returned by observers are joined and returned.
// An unknown key is defined as a new reactive property. Setting on a nil
// Object is a broken path.
func (o *Object) Set(key string, v any) error {
	if o == nil {
		return &PathError{Expr: key, Segment: key, Index: 0, Err: ErrBrokenPath}
	}
	p, ok := o.props[key]
	if !ok {
		o.define(key, v)
		return nil
	}
	if Same(p.value, v) {
		return nil
	}
	p.value = o.rs.MakeReactive(v)
	return p.dep.Notify()
}

func (o *Object) define(key string, v any) {
	o.props[key] = &property{
		dep:   NewDep(),
		value: o.rs.MakeReactive(v),
	}
	i := sort.SearchStrings(o.keys, key)
	o.keys = append(o.keys, "")
	copy(o.keys[i+1:], o.keys[i:])
	o.keys[i] = key
}

// Watch creates a Watcher rooted at o.
func (o *Object) Watch(expr string, fn Effect) (*Watcher, error) {
	return o.rs.Watch(o, expr, fn)
}

func (o *Object) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.props[key]
	return ok
}

// Keys returns the keys in sorted order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Dep returns the dependency set of key, or nil.
func (o *Object) Dep(key string) *Dep {
	if o == nil {
		return nil
	}
	if p, ok := o.props[key]; ok {
		return p.dep
	}
	return nil
}

// Snapshot copies the object back into plain maps without tracking.
func (o *Object) Snapshot() map[string]any {
	return o.snapshot(map[*Object]map[string]any{})
}

func (o *Object) snapshot(seen map[*Object]map[string]any) map[string]any {
	if m, ok := seen[o]; ok {
		return m
	}
	m := make(map[string]any, len(o.props))
	seen[o] = m
	for k, p := range o.props {
		if child, ok := p.value.(*Object); ok {
			m[k] = child.snapshot(seen)
			continue
		}
		m[k] = p.value
	}
	return m
}

func (o *Object) String() string {
	return fmt.Sprint(o.Snapshot())
}

func (o *Object) is(v any) bool {
	if o == nil {
		return isNilObject(v)
	}
	switch v := v.(type) {
	case *Object:
		return o == v
	case nil:
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Map && !rv.IsNil() && rv.UnsafePointer() == o.origin
}
