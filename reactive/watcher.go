package reactive

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Effect receives the freshly resolved value of a watched path.
type Effect func(value any)

// Watcher keeps an effect current with the value of a dot path.
type Watcher struct {
	rs   *System
	root Source
	expr string
	path Path
	fn   Effect

	// deps joined during construction, used to register once per dep and to
	// leave them all on Dispose
	deps mapset.Set[*Dep]

	value    any
	disposed bool
}

// Watch resolves expr from root once with the watcher active, so every
// property read along the path registers it. The effect is not called during
// construction. A broken path fails construction and leaves no registrations
// behind.
func (rs *System) Watch(root Source, expr string, fn Effect) (*Watcher, error) {
	path, err := rs.parsePath(expr)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		rs:   rs,
		root: root,
		expr: expr,
		path: path,
		fn:   fn,
		deps: mapset.NewSet[*Dep](),
	}

	err = rs.Track(w, func() error {
		v, err := Resolve(root, path)
		if err != nil {
			return err
		}
		w.value = v
		return nil
	})
	if err != nil {
		w.Dispose()
		return nil, fmt.Errorf("watch: %w", err)
	}
	return w, nil
}

func (w *Watcher) addDep(d *Dep) bool {
	if w.disposed {
		return false
	}
	return w.deps.Add(d)
}

// Update re-resolves the path and hands the value to the effect, both
// without tracking. On a broken path the effect is not called and the error
// is returned.
func (w *Watcher) Update() error {
	if w.disposed {
		return nil
	}

	err := w.rs.Untrack(func() error {
		v, err := Resolve(w.root, w.path)
		if err != nil {
			return err
		}
		w.value = v
		if w.fn != nil {
			w.fn(v)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// Dispose removes the watcher from every dep it joined. It is safe to call
// more than once.
func (w *Watcher) Dispose() {
	if w.disposed {
		return
	}
	w.disposed = true
	for _, d := range w.deps.ToSlice() {
		d.Remove(w)
	}
	w.deps.Clear()
}

func (w *Watcher) Disposed() bool {
	return w.disposed
}

// Value is the last value the path resolved to.
func (w *Watcher) Value() any {
	return w.value
}

func (w *Watcher) Expr() string {
	return w.expr
}

// Deps reports how many dependency sets the watcher belongs to.
func (w *Watcher) Deps() int {
	return w.deps.Cardinality()
}
