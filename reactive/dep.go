package reactive

import (
	"errors"
	"sync/atomic"
)

// Subscriber is anything a Dep can notify.
type Subscriber interface {
	Update() error
}

var depIDs atomic.Uint64

// Dep is the dependency set of a single property.
type Dep struct {
	id   uint64
	subs []Subscriber
}

func NewDep() *Dep {
	return &Dep{id: depIDs.Add(1)}
}

func (d *Dep) ID() uint64 {
	return d.id
}

// Add appends sub. Duplicates are kept.
func (d *Dep) Add(sub Subscriber) {
	d.subs = append(d.subs, sub)
}

// Remove drops every occurrence of sub.
func (d *Dep) Remove(sub Subscriber) {
	kept := d.subs[:0]
	for _, s := range d.subs {
		if s != sub {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(d.subs); i++ {
		d.subs[i] = nil
	}
	d.subs = kept
}

func (d *Dep) Len() int {
	return len(d.subs)
}

func (d *Dep) Subscribers() []Subscriber {
	subs := make([]Subscriber, len(d.subs))
	copy(subs, d.subs)
	return subs
}

// Notify updates every subscriber registered when it was called, in
// registration order. A failing subscriber does not stop the walk.
func (d *Dep) Notify() error {
	if len(d.subs) == 0 {
		return nil
	}
	var errs []error
	for _, sub := range d.Subscribers() {
		if err := sub.Update(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
