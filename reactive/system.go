package reactive

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// System holds the tracking context shared by every reactive object and
// watcher created from it. It is not safe for concurrent use.
type System struct {
	// stack of observers under evaluation, a nil frame means tracking is paused
	stack []Subscriber

	paths map[uint64]cachedPath

	// objects built so far, by the map they were made from
	objects map[unsafe.Pointer]*Object
}

type cachedPath struct {
	expr string
	path Path
}

func NewSystem() *System {
	return &System{
		paths:   map[uint64]cachedPath{},
		objects: map[unsafe.Pointer]*Object{},
	}
}

// Active returns the observer currently being evaluated, if any.
func (rs *System) Active() Subscriber {
	if len(rs.stack) == 0 {
		return nil
	}
	return rs.stack[len(rs.stack)-1]
}

// Depth reports how many evaluations are in flight.
func (rs *System) Depth() int {
	return len(rs.stack)
}

// Track runs fn with sub as the active observer. The previous observer is
// restored when fn returns or panics.
func (rs *System) Track(sub Subscriber, fn func() error) error {
	rs.stack = append(rs.stack, sub)
	defer rs.pop()
	return fn()
}

func (rs *System) PauseTracking() {
	rs.stack = append(rs.stack, nil)
}

func (rs *System) ResumeTracking() {
	rs.pop()
}

func (rs *System) Untrack(fn func() error) error {
	rs.PauseTracking()
	defer rs.ResumeTracking()
	return fn()
}

func (rs *System) pop() {
	last := len(rs.stack) - 1
	if last < 0 {
		return
	}
	rs.stack[last] = nil
	rs.stack = rs.stack[:last]
}

// dependent is implemented by subscribers that remember which deps they
// joined, so they can register once per dep and leave them on dispose.
type dependent interface {
	addDep(d *Dep) bool
}

func (rs *System) depend(d *Dep) {
	sub := rs.Active()
	if sub == nil {
		return
	}
	if t, ok := sub.(dependent); ok && !t.addDep(d) {
		return
	}
	d.Add(sub)
}

// parsePath memoizes ParsePath per expression.
func (rs *System) parsePath(expr string) (Path, error) {
	key := xxhash.Sum64String(expr)
	if c, ok := rs.paths[key]; ok && c.expr == expr {
		return c.path, nil
	}
	p, err := ParsePath(expr)
	if err != nil {
		return nil, err
	}
	rs.paths[key] = cachedPath{expr: expr, path: p}
	return p, nil
}
