// Package bind keeps rendered text and input values in step with a view
// model. Templates interpolate dot paths with {{ expr }} placeholders; each
// placeholder is backed by one watcher.
package bind

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/delaneyj/mvvm/reactive"
	"github.com/delaneyj/mvvm/viewmodel"
	"github.com/rs/zerolog"
	"github.com/valyala/quicktemplate"
)

var placeholderRE = regexp.MustCompile(`\{\{(.*?)\}\}`)

type Option func(*Binder)

func WithLogger(log zerolog.Logger) Option {
	return func(b *Binder) {
		b.log = log
	}
}

// WithEscape HTML-escapes interpolated values. Literal template text is
// written as is.
func WithEscape(escape bool) Option {
	return func(b *Binder) {
		b.escape = escape
	}
}

// WithSkipBroken makes a placeholder whose path cannot be resolved render
// empty instead of failing the text binding.
func WithSkipBroken(skip bool) Option {
	return func(b *Binder) {
		b.skipBroken = skip
	}
}

type Binder struct {
	vm         *viewmodel.ViewModel
	log        zerolog.Logger
	escape     bool
	skipBroken bool

	watchers []*reactive.Watcher
	bindings int
}

func New(vm *viewmodel.ViewModel, opts ...Option) *Binder {
	b := &Binder{
		vm:  vm,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Close disposes every watcher the binder created.
func (b *Binder) Close() {
	for _, w := range b.watchers {
		w.Dispose()
	}
	b.watchers = nil
	b.bindings = 0
}

// Bindings reports how many text and model bindings were made since the
// last Close.
func (b *Binder) Bindings() int {
	return b.bindings
}

// Watchers reports how many watchers back the live bindings.
func (b *Binder) Watchers() int {
	n := 0
	for _, w := range b.watchers {
		if !w.Disposed() {
			n++
		}
	}
	return n
}

type part struct {
	literal string
	expr    string
	slot    int
}

func parse(tmpl string) (parts []part, slots int) {
	last := 0
	for _, loc := range placeholderRE.FindAllStringSubmatchIndex(tmpl, -1) {
		if loc[0] > last {
			parts = append(parts, part{literal: tmpl[last:loc[0]], slot: -1})
		}
		parts = append(parts, part{
			expr: strings.TrimSpace(tmpl[loc[2]:loc[3]]),
			slot: slots,
		})
		slots++
		last = loc[1]
	}
	if last < len(tmpl) {
		parts = append(parts, part{literal: tmpl[last:], slot: -1})
	}
	return parts, slots
}

// TextBinding renders a template whenever one of its placeholders changes.
type TextBinding struct {
	b        *Binder
	parts    []part
	values   []any
	watchers []*reactive.Watcher
	sink     func(string)
	text     string
}

// Text binds tmpl and pushes the rendered text to sink, once immediately and
// again after every change.
func (b *Binder) Text(tmpl string, sink func(string)) (*TextBinding, error) {
	parts, slots := parse(tmpl)
	tb := &TextBinding{
		b:      b,
		parts:  parts,
		values: make([]any, slots),
		sink:   sink,
	}

	for _, p := range parts {
		if p.slot < 0 {
			continue
		}
		slot := p.slot
		w, err := b.vm.Watch(p.expr, func(v any) {
			tb.values[slot] = v
			tb.render()
		})
		if err != nil {
			if b.skipBroken && errors.Is(err, reactive.ErrBrokenPath) {
				b.log.Warn().Err(err).Str("expr", p.expr).Msg("skipping broken binding")
				continue
			}
			tb.Dispose()
			return nil, fmt.Errorf("bind %q: %w", tmpl, err)
		}
		tb.values[slot] = w.Value()
		tb.watchers = append(tb.watchers, w)
	}

	b.watchers = append(b.watchers, tb.watchers...)
	b.bindings++
	tb.render()
	return tb, nil
}

func (tb *TextBinding) render() {
	tb.text = write(tb.parts, tb.values, tb.b.escape)
	tb.b.log.Debug().Str("text", tb.text).Msg("render")
	if tb.sink != nil {
		tb.sink(tb.text)
	}
}

func write(parts []part, values []any, escape bool) string {
	var sb strings.Builder
	qw := quicktemplate.AcquireWriter(&sb)
	for _, p := range parts {
		if p.slot < 0 {
			qw.N().S(p.literal)
			continue
		}
		s := format(values[p.slot])
		if escape {
			qw.E().S(s)
		} else {
			qw.N().S(s)
		}
	}
	quicktemplate.ReleaseWriter(qw)
	return sb.String()
}

// Render interpolates tmpl once without creating watchers. Reads are tracked
// if an observer is active, which makes it usable inside computed
// properties.
func Render(vm *viewmodel.ViewModel, tmpl string, escape bool) (string, error) {
	parts, slots := parse(tmpl)
	values := make([]any, slots)
	for _, p := range parts {
		if p.slot < 0 {
			continue
		}
		v, err := vm.Get(p.expr)
		if err != nil {
			return "", fmt.Errorf("render %q: %w", tmpl, err)
		}
		values[p.slot] = v
	}
	return write(parts, values, escape), nil
}

// Text is the most recent rendering.
func (tb *TextBinding) Text() string {
	return tb.text
}

func (tb *TextBinding) Dispose() {
	for _, w := range tb.watchers {
		w.Dispose()
	}
	tb.watchers = nil
}

// ModelBinding is the input convention: the bound value is pushed to the
// input, and input is written back to the bound path.
type ModelBinding struct {
	b    *Binder
	expr string
	w    *reactive.Watcher
}

func (b *Binder) Model(expr string, sink func(string)) (*ModelBinding, error) {
	w, err := b.vm.Watch(expr, func(v any) {
		if sink != nil {
			sink(format(v))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", expr, err)
	}
	if sink != nil {
		sink(format(w.Value()))
	}

	b.watchers = append(b.watchers, w)
	b.bindings++
	return &ModelBinding{b: b, expr: expr, w: w}, nil
}

// Input writes a value typed into the input back to the view model.
func (mb *ModelBinding) Input(value string) error {
	mb.b.log.Debug().Str("expr", mb.expr).Str("value", value).Msg("input")
	return mb.b.vm.SetPath(mb.expr, value)
}

func (mb *ModelBinding) Value() string {
	return format(mb.w.Value())
}

func (mb *ModelBinding) Dispose() {
	mb.w.Dispose()
}

func format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	return fmt.Sprint(v)
}
