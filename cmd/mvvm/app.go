package main

import (
	"fmt"
	"sort"

	"github.com/delaneyj/mvvm/bind"
	"github.com/delaneyj/mvvm/reactive"
	"github.com/delaneyj/mvvm/viewmodel"
	"github.com/rs/zerolog"
)

type appOptions struct {
	escape     bool
	skipBroken bool
}

type view struct {
	name    string
	kind    string
	source  string
	text    string
	renders int
	model   *bind.ModelBinding
}

type app struct {
	log    zerolog.Logger
	vm     *viewmodel.ViewModel
	binder *bind.Binder
	views  []*view
}

func newApp(doc *document, opts appOptions, log zerolog.Logger) (*app, error) {
	computed := make(map[string]viewmodel.ComputedFunc, len(doc.Computed))
	for key, tmpl := range doc.Computed {
		key, tmpl := key, tmpl
		computed[key] = func(vm *viewmodel.ViewModel) any {
			s, err := bind.Render(vm, tmpl, false)
			if err != nil {
				log.Warn().Err(err).Str("computed", key).Msg("computed failed")
				return nil
			}
			return s
		}
	}

	vm, err := viewmodel.New(reactive.NewSystem(), viewmodel.Options{
		Data:     doc.Data,
		Computed: computed,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		log: log,
		vm:  vm,
		binder: bind.New(vm,
			bind.WithLogger(log),
			bind.WithEscape(opts.escape),
			bind.WithSkipBroken(opts.skipBroken),
		),
	}

	for _, cfg := range doc.Bind {
		if err := a.bind(cfg); err != nil {
			a.binder.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) bind(cfg bindingConfig) error {
	v := &view{name: cfg.Name, kind: cfg.kind()}
	sink := func(s string) {
		v.text = s
		v.renders++
		a.log.Info().Str("binding", v.name).Str("text", s).Msg("render")
	}

	switch v.kind {
	case "model":
		v.source = cfg.Model
		mb, err := a.binder.Model(cfg.Model, sink)
		if err != nil {
			return fmt.Errorf("binding %q: %w", cfg.Name, err)
		}
		v.model = mb
	default:
		v.source = cfg.Text
		if _, err := a.binder.Text(cfg.Text, sink); err != nil {
			return fmt.Errorf("binding %q: %w", cfg.Name, err)
		}
	}

	a.views = append(a.views, v)
	return nil
}

// set applies one "path=value" assignment.
func (a *app) set(assignment string) error {
	path, value, err := parseAssignment(assignment)
	if err != nil {
		return err
	}
	a.log.Debug().Str("path", path).Interface("value", value).Msg("set")
	return a.vm.SetPath(path, value)
}

// input types value into the model binding called name.
func (a *app) input(name, value string) error {
	for _, v := range a.views {
		if v.name == name {
			if v.model == nil {
				return fmt.Errorf("binding %q is not a model binding", name)
			}
			return v.model.Input(value)
		}
	}
	return fmt.Errorf("no binding named %q", name)
}

type propertyRow struct {
	path        string
	value       string
	subscribers int
}

// properties walks the reactive data depth first in key order.
func (a *app) properties() []propertyRow {
	var rows []propertyRow
	seen := map[*reactive.Object]bool{}
	var walk func(o *reactive.Object, prefix string)
	walk = func(o *reactive.Object, prefix string) {
		if seen[o] {
			return
		}
		seen[o] = true
		for _, key := range o.Keys() {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			value := o.Get(key)
			row := propertyRow{path: path, subscribers: o.Dep(key).Len()}
			child, isObject := value.(*reactive.Object)
			if isObject {
				row.value = fmt.Sprintf("{%d}", child.Len())
			} else {
				row.value = fmt.Sprint(value)
			}
			rows = append(rows, row)
			if isObject {
				walk(child, path)
			}
		}
	}
	walk(a.vm.Data(), "")
	return rows
}

func (a *app) computedKeys() []string {
	var keys []string
	for _, k := range a.vm.Keys() {
		if a.vm.IsComputed(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (a *app) close() {
	a.binder.Close()
}
