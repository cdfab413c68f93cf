// Package viewmodel wires a data root and computed properties into a single
// object that bindings resolve their paths against.
package viewmodel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/delaneyj/mvvm/reactive"
)

var (
	ErrDuplicateKey = errors.New("key defined as both data and computed")
	ErrReadOnly     = errors.New("computed property is read-only")
)

// ComputedFunc derives a value from the view model. It runs on every read,
// and whatever it reads is tracked for the observer doing the reading.
type ComputedFunc func(vm *ViewModel) any

type Options struct {
	Data     map[string]any
	Computed map[string]ComputedFunc
}

// ViewModel proxies the root keys of its data and adds computed keys.
type ViewModel struct {
	rs       *reactive.System
	data     *reactive.Object
	computed map[string]ComputedFunc
}

func New(rs *reactive.System, opts Options) (*ViewModel, error) {
	if rs == nil {
		rs = reactive.NewSystem()
	}
	for key := range opts.Computed {
		if _, ok := opts.Data[key]; ok {
			return nil, fmt.Errorf("%q: %w", key, ErrDuplicateKey)
		}
	}

	computed := make(map[string]ComputedFunc, len(opts.Computed))
	for k, fn := range opts.Computed {
		computed[k] = fn
	}

	return &ViewModel{
		rs:       rs,
		data:     rs.NewObject(opts.Data),
		computed: computed,
	}, nil
}

func (vm *ViewModel) System() *reactive.System {
	return vm.rs
}

func (vm *ViewModel) Data() *reactive.Object {
	return vm.data
}

// Lookup implements reactive.Source.
func (vm *ViewModel) Lookup(key string) (any, bool) {
	if fn, ok := vm.computed[key]; ok {
		return fn(vm), true
	}
	return vm.data.Lookup(key)
}

// Get resolves expr against the view model.
func (vm *ViewModel) Get(expr string) (any, error) {
	return vm.rs.Eval(vm, expr)
}

// Set writes a root data key.
func (vm *ViewModel) Set(key string, v any) error {
	if _, ok := vm.computed[key]; ok {
		return fmt.Errorf("%q: %w", key, ErrReadOnly)
	}
	return vm.data.Set(key, v)
}

// SetPath writes the property expr points at. Every segment but the last
// must resolve to an object.
func (vm *ViewModel) SetPath(expr string, v any) error {
	path, err := reactive.ParsePath(expr)
	if err != nil {
		return err
	}
	if len(path) == 1 {
		return vm.Set(path[0], v)
	}

	var parent any
	err = vm.rs.Untrack(func() (err error) {
		parent, err = reactive.Resolve(vm, path[:len(path)-1])
		return err
	})
	if err != nil {
		return err
	}

	last := path[len(path)-1]
	obj, ok := parent.(*reactive.Object)
	if !ok || obj == nil {
		return &reactive.PathError{
			Expr:    expr,
			Segment: last,
			Index:   len(path) - 1,
			Err:     reactive.ErrBrokenPath,
		}
	}
	return obj.Set(last, v)
}

func (vm *ViewModel) Watch(expr string, fn reactive.Effect) (*reactive.Watcher, error) {
	return vm.rs.Watch(vm, expr, fn)
}

// Keys lists data and computed keys in sorted order.
func (vm *ViewModel) Keys() []string {
	keys := vm.data.Keys()
	for k := range vm.computed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (vm *ViewModel) IsComputed(key string) bool {
	_, ok := vm.computed[key]
	return ok
}
