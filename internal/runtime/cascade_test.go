package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errExpected = errors.New("expected failure")

// explodingLabel fails while being prepared for render, like a label whose
// model cannot be read.
type explodingLabel struct {
	tree.Node
}

func newExplodingLabel(id string) *explodingLabel {
	l := &explodingLabel{}
	l.InitLeaf(l, id)
	return l
}

func (l *explodingLabel) OnBeforeRender() {
	panic(errExpected)
}

func startPage(t *testing.T, behaviors ...tree.Behavior) (*tree.Node, *explodingLabel) {
	t.Helper()
	page := tree.NewContainer("start")
	label := newExplodingLabel("label")
	label.AddBehavior(behaviors...)
	require.NoError(t, page.Add(label))
	return page, label
}

type recordingBehavior struct {
	name     string
	calls    *[]string
	redirect tree.Component
	err      error
}

func (b recordingBehavior) OnFailure(_ context.Context, _ tree.Component, failure error) error {
	*b.calls = append(*b.calls, b.name)
	if !errors.Is(failure, errExpected) {
		return errors.New("behavior saw an unexpected failure")
	}
	if b.redirect != nil {
		return tree.Restart(b.redirect)
	}
	return b.err
}

func TestEngine_DefaultExceptionHandling(t *testing.T) {
	engine := runtime.NewEngine()
	page, _ := startPage(t)

	_, err := engine.Render(context.Background(), page)

	var failure *domain.RuntimeFailure
	require.ErrorAs(t, err, &failure)
	assert.ErrorIs(t, err, errExpected)
	assert.Equal(t, "start:label", failure.Path)
}

func TestEngine_BehaviorsWithCleanupOnly(t *testing.T) {
	var calls []string
	engine := runtime.NewEngine()
	page, _ := startPage(t,
		recordingBehavior{name: "first", calls: &calls},
		recordingBehavior{name: "second", calls: &calls},
	)

	_, err := engine.Render(context.Background(), page)

	assert.ErrorIs(t, err, errExpected)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestEngine_BehaviorRedirects(t *testing.T) {
	redirected1 := tree.NewContainer("redirected1")
	redirected2 := tree.NewContainer("redirected2")

	tests := []struct {
		name      string
		behaviors func(calls *[]string) []tree.Behavior
		wantPage  tree.Component
		wantCalls []string
	}{
		{
			name: "single behavior with redirect",
			behaviors: func(calls *[]string) []tree.Behavior {
				return []tree.Behavior{recordingBehavior{name: "first", calls: calls, redirect: redirected1}}
			},
			wantPage:  redirected1,
			wantCalls: []string{"first"},
		},
		{
			name: "second behavior is called even with redirect in first",
			behaviors: func(calls *[]string) []tree.Behavior {
				return []tree.Behavior{
					recordingBehavior{name: "first", calls: calls, redirect: redirected1},
					recordingBehavior{name: "second", calls: calls},
				}
			},
			wantPage:  redirected1,
			wantCalls: []string{"first", "second"},
		},
		{
			name: "second behavior redirect wins",
			behaviors: func(calls *[]string) []tree.Behavior {
				return []tree.Behavior{
					recordingBehavior{name: "first", calls: calls, redirect: redirected1},
					recordingBehavior{name: "second", calls: calls, redirect: redirected2},
				}
			},
			wantPage:  redirected2,
			wantCalls: []string{"first", "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			var failures []*domain.FailureEvent
			engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
				OnFailure: func(_ context.Context, e *domain.FailureEvent) { failures = append(failures, e) },
			}))
			page, _ := startPage(t, tt.behaviors(&calls)...)

			rendered, err := engine.Render(context.Background(), page)

			require.NoError(t, err)
			assert.Same(t, tt.wantPage, rendered)
			assert.Equal(t, tt.wantCalls, calls)
			require.Len(t, failures, 1)
			assert.True(t, failures[0].Redirected)
			assert.Equal(t, len(tt.wantCalls), failures[0].Behaviors)
		})
	}
}

func TestEngine_DispatchFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("reaches ancestors after the origin", func(t *testing.T) {
		var calls []string
		page := tree.NewContainer("page")
		form := tree.NewContainer("form")
		input := tree.NewLeaf("input")
		require.NoError(t, form.Add(input))
		require.NoError(t, page.Add(form))
		page.AddBehavior(recordingBehavior{name: "page", calls: &calls})
		input.AddBehavior(recordingBehavior{name: "input", calls: &calls})
		form.AddBehavior(recordingBehavior{name: "form", calls: &calls})

		redirect, err := runtime.NewEngine().DispatchFailure(ctx, input, errExpected)

		assert.Nil(t, redirect)
		assert.ErrorIs(t, err, errExpected)
		assert.Equal(t, []string{"input", "form", "page"}, calls)
	})

	t.Run("behavior errors are joined", func(t *testing.T) {
		var calls []string
		errCleanup := errors.New("cleanup failed")
		node := tree.NewLeaf("node")
		node.AddBehavior(
			recordingBehavior{name: "broken", calls: &calls, err: errCleanup},
			recordingBehavior{name: "after", calls: &calls},
		)

		_, err := runtime.NewEngine().DispatchFailure(ctx, node, errExpected)

		var failure *domain.RuntimeFailure
		require.ErrorAs(t, err, &failure)
		assert.ErrorIs(t, err, errCleanup)
		assert.Equal(t, []string{"broken", "after"}, calls)
	})

	t.Run("panicking behavior does not stop the cascade", func(t *testing.T) {
		var calls []string
		target := tree.NewContainer("target")
		node := tree.NewLeaf("node")
		node.AddBehavior(
			tree.BehaviorFunc(func(context.Context, tree.Component, error) error { panic("boom") }),
			tree.BehaviorFunc(func(context.Context, tree.Component, error) error { panic(tree.Restart(target)) }),
			recordingBehavior{name: "last", calls: &calls},
		)

		redirect, err := runtime.NewEngine().DispatchFailure(ctx, node, errExpected)

		require.NoError(t, err)
		assert.Same(t, target, redirect)
		assert.Equal(t, []string{"last"}, calls)
	})

	t.Run("behavior receives its owner", func(t *testing.T) {
		page := tree.NewContainer("page")
		input := tree.NewLeaf("input")
		require.NoError(t, page.Add(input))

		var owner tree.Component
		page.AddBehavior(tree.BehaviorFunc(func(_ context.Context, c tree.Component, _ error) error {
			owner = c
			return nil
		}))

		_, _ = runtime.NewEngine().DispatchFailure(ctx, input, errExpected)
		assert.Same(t, page, owner)
	})
}
