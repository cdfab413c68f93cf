package reactive_test

import (
	"testing"

	"github.com/delaneyj/mvvm/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(values *[]any) reactive.Effect {
	return func(v any) {
		*values = append(*values, v)
	}
}

func TestWriteNotifiesWatcher(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"a": 1})

	var got []any
	w, err := root.Watch("a", collect(&got))
	require.NoError(t, err)
	assert.Equal(t, 1, w.Value())
	assert.Empty(t, got)

	require.NoError(t, root.Set("a", 2))
	assert.Equal(t, []any{2}, got)
	assert.Equal(t, 2, w.Value())
}

func TestNestedWriteAndReferenceEquality(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{
		"a": map[string]any{"b": 1},
	})

	var got []any
	_, err := root.Watch("a.b", collect(&got))
	require.NoError(t, err)

	a := root.Get("a").(*reactive.Object)
	require.NoError(t, a.Set("b", 5))
	assert.Equal(t, []any{5}, got)

	// a fresh map is a different reference even though b is unchanged
	require.NoError(t, root.Set("a", map[string]any{"b": 5}))
	assert.Equal(t, []any{5, 5}, got)

	fresh := root.Get("a").(*reactive.Object)
	assert.NotSame(t, a, fresh)
	assert.Equal(t, 0, fresh.Dep("b").Len())
	assert.Equal(t, 1, root.Dep("a").Len())
}

func TestTwoWatchersFireInRegistrationOrderEveryWrite(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"x": 0})

	var order []string
	_, err := root.Watch("x", func(any) { order = append(order, "first") })
	require.NoError(t, err)
	_, err = root.Watch("x", func(any) { order = append(order, "second") })
	require.NoError(t, err)

	require.NoError(t, root.Set("x", 1))
	require.NoError(t, root.Set("x", 2))
	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
}

func TestSelfAssignmentIsNoop(t *testing.T) {
	rs := reactive.NewSystem()
	inner := map[string]any{"b": 1}
	root := rs.NewObject(map[string]any{"a": inner})

	calls := 0
	_, err := root.Watch("a", func(any) { calls++ })
	require.NoError(t, err)

	require.NoError(t, root.Set("a", root.Get("a")))
	require.NoError(t, root.Set("a", inner))
	assert.Equal(t, 0, calls)
}

func TestUnchangedPrimitiveWriteIsNoop(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"name": "ann", "n": 3})

	calls := 0
	_, err := root.Watch("name", func(any) { calls++ })
	require.NoError(t, err)
	_, err = root.Watch("n", func(any) { calls++ })
	require.NoError(t, err)

	require.NoError(t, root.Set("name", "ann"))
	require.NoError(t, root.Set("n", 3))
	assert.Equal(t, 0, calls)

	require.NoError(t, root.Set("name", "bob"))
	assert.Equal(t, 1, calls)
}

func TestWriteOnlyNotifiesWatchersOfThatProperty(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"a": 1, "b": 1})

	var aCalls, bCalls int
	_, err := root.Watch("a", func(any) { aCalls++ })
	require.NoError(t, err)
	_, err = root.Watch("b", func(any) { bCalls++ })
	require.NoError(t, err)

	require.NoError(t, root.Set("a", 2))
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 0, bCalls)
}

func TestEverySegmentRegistersOnce(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": "deep"},
		},
	})

	w, err := root.Watch("a.b.c", nil)
	require.NoError(t, err)
	assert.Equal(t, "deep", w.Value())
	assert.Equal(t, 3, w.Deps())

	a := root.Get("a").(*reactive.Object)
	b := a.Get("b").(*reactive.Object)
	for _, d := range []*reactive.Dep{root.Dep("a"), a.Dep("b"), b.Dep("c")} {
		subs := d.Subscribers()
		require.Len(t, subs, 1)
		assert.Same(t, w, subs[0])
	}
}

func TestIntermediateWriteFiresDeepWatcher(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{
		"user": map[string]any{"name": "ann"},
	})

	var got []any
	_, err := root.Watch("user.name", collect(&got))
	require.NoError(t, err)

	require.NoError(t, root.Set("user", map[string]any{"name": "bob"}))
	assert.Equal(t, []any{"bob"}, got)
}

func TestAssignedObjectIsReactive(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"a": nil})

	require.NoError(t, root.Set("a", map[string]any{
		"b": map[string]any{"c": 1},
	}))

	var got []any
	_, err := root.Watch("a.b.c", collect(&got))
	require.NoError(t, err)

	b := root.Get("a").(*reactive.Object).Get("b").(*reactive.Object)
	require.NoError(t, b.Set("c", 2))
	assert.Equal(t, []any{2}, got)
}

func TestMakeReactiveToleratesNonObjects(t *testing.T) {
	rs := reactive.NewSystem()

	for _, v := range []any{nil, 1, "s", 1.5, true, []any{1, 2}, struct{ A int }{1}} {
		assert.NotPanics(t, func() {
			out := rs.MakeReactive(v)
			assert.Equal(t, v, out)
		})
	}

	var nilMap map[string]any
	assert.Nil(t, rs.MakeReactive(nilMap))

	o := rs.NewObject(map[string]any{"a": 1})
	assert.Same(t, o, rs.MakeReactive(o))
}

func TestMakeReactiveTypedMaps(t *testing.T) {
	rs := reactive.NewSystem()
	o, ok := rs.MakeReactive(map[string]int{"b": 2, "a": 1}).(*reactive.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, o.Keys())
	assert.Equal(t, 2, o.Get("b"))

	_, ok = rs.MakeReactive(map[int]string{1: "a"}).(*reactive.Object)
	assert.False(t, ok)
}

func TestMakeReactiveCyclicData(t *testing.T) {
	rs := reactive.NewSystem()
	data := map[string]any{"n": 1}
	data["self"] = data

	o := rs.NewObject(data)
	assert.Same(t, o, o.Get("self"))
}

func TestMissingFinalKeyResolvesToNil(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"a": 1})

	w, err := root.Watch("missing", nil)
	require.NoError(t, err)
	assert.Nil(t, w.Value())
	assert.Equal(t, 0, w.Deps())
}

func TestBrokenPathFailsConstruction(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"a": 1, "n": nil})

	for _, expr := range []string{"missing.x", "a.b", "n.x"} {
		_, err := root.Watch(expr, nil)
		assert.ErrorIs(t, err, reactive.ErrBrokenPath, expr)

		var pe *reactive.PathError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 1, pe.Index)
	}

	// no partial registrations survive
	assert.Equal(t, 0, root.Dep("a").Len())
	assert.Equal(t, 0, root.Dep("n").Len())
}

func TestBrokenPathOnUpdateSurfacesFromSet(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{
		"a": map[string]any{"b": 1},
	})

	calls := 0
	w, err := root.Watch("a.b", func(any) { calls++ })
	require.NoError(t, err)

	err = root.Set("a", 5)
	assert.ErrorIs(t, err, reactive.ErrBrokenPath)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, w.Value())
}

func TestInvalidExpression(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(nil)

	for _, expr := range []string{"", "  ", "a..b", ".a", "a.", "a-b", "1a", "a b"} {
		_, err := root.Watch(expr, nil)
		assert.ErrorIs(t, err, reactive.ErrInvalidPath, expr)
	}
}

func TestDisposeStopsNotifications(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{
		"a": map[string]any{"b": 1},
	})

	calls := 0
	w, err := root.Watch("a.b", func(any) { calls++ })
	require.NoError(t, err)

	w.Dispose()
	w.Dispose()
	assert.True(t, w.Disposed())
	assert.Equal(t, 0, w.Deps())
	assert.Equal(t, 0, root.Dep("a").Len())

	require.NoError(t, root.Get("a").(*reactive.Object).Set("b", 2))
	require.NoError(t, root.Set("a", 3))
	assert.Equal(t, 0, calls)
	assert.NoError(t, w.Update())
}

func TestDisposeDuringNotifySkipsLaterWatcher(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"x": 0})

	var second *reactive.Watcher
	calls := 0
	_, err := root.Watch("x", func(any) { second.Dispose() })
	require.NoError(t, err)
	second, err = root.Watch("x", func(any) { calls++ })
	require.NoError(t, err)

	require.NoError(t, root.Set("x", 1))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, root.Dep("x").Len())
}

func TestWriteInsideEffectCascadesDepthFirst(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"x": 0, "y": 0})

	var order []string
	_, err := root.Watch("x", func(v any) {
		order = append(order, "x")
		require.NoError(t, root.Set("y", v.(int)*10))
		order = append(order, "x done")
	})
	require.NoError(t, err)
	_, err = root.Watch("y", func(v any) {
		order = append(order, "y")
	})
	require.NoError(t, err)

	require.NoError(t, root.Set("x", 1))
	assert.Equal(t, []string{"x", "y", "x done"}, order)
	assert.Equal(t, 10, root.Get("y"))
}

func TestFanOutIsNotBatched(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 0}},
	})

	calls := 0
	_, err := root.Watch("a.b.c", func(any) { calls++ })
	require.NoError(t, err)

	a := root.Get("a").(*reactive.Object)
	b := a.Get("b").(*reactive.Object)
	require.NoError(t, b.Set("c", 1))
	require.NoError(t, a.Set("b", map[string]any{"c": 1}))
	require.NoError(t, root.Set("a", map[string]any{"b": map[string]any{"c": 1}}))
	assert.Equal(t, 3, calls)
}

func TestSetUnknownKeyDefinesProperty(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"b": 1})

	require.NoError(t, root.Set("a", map[string]any{"c": 1}))
	assert.Equal(t, []string{"a", "b"}, root.Keys())
	assert.True(t, root.Has("a"))
	assert.IsType(t, &reactive.Object{}, root.Get("a"))

	var got []any
	_, err := root.Watch("a.c", collect(&got))
	require.NoError(t, err)
	require.NoError(t, root.Get("a").(*reactive.Object).Set("c", 2))
	assert.Equal(t, []any{2}, got)
}

func TestReadsOutsideWatchersAreNotTracked(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{"a": 1})

	root.Get("a")
	_, err := rs.Eval(root, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, root.Dep("a").Len())
}

func TestSnapshot(t *testing.T) {
	rs := reactive.NewSystem()
	root := rs.NewObject(map[string]any{
		"a": map[string]any{"b": 1},
		"s": "x",
	})
	require.NoError(t, root.Get("a").(*reactive.Object).Set("b", 2))

	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 2},
		"s": "x",
	}, root.Snapshot())
	assert.Equal(t, "map[a:map[b:2] s:x]", root.String())
}

func TestNilObject(t *testing.T) {
	var o *reactive.Object

	err := o.Set("a", 1)
	assert.ErrorIs(t, err, reactive.ErrBrokenPath)
	var perr *reactive.PathError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "a", perr.Segment)

	assert.False(t, o.Has("a"))
	assert.Nil(t, o.Keys())
	assert.Equal(t, 0, o.Len())
	assert.Nil(t, o.Dep("a"))
	assert.Nil(t, o.Get("a"))
}

func TestAliasedMapSharesObject(t *testing.T) {
	rs := reactive.NewSystem()
	inner := map[string]any{"c": 1}
	root := rs.NewObject(map[string]any{"a": inner})
	require.NoError(t, root.Set("b", inner))
	assert.Same(t, root.Get("a"), root.Get("b"))

	var got []any
	_, err := root.Watch("a.c", collect(&got))
	require.NoError(t, err)
	require.NoError(t, root.Get("b").(*reactive.Object).Set("c", 2))
	assert.Equal(t, []any{2}, got)

	other := reactive.NewSystem()
	assert.NotSame(t, root.Get("a"), other.MakeReactive(inner))
}
