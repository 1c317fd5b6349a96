package feedback_test

import (
	"slices"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/feedback"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPage builds:
//
//	page
//	├── feedback                 catch-all
//	├── externalLabel
//	└── form
//	    ├── formFeedbackContainer
//	    │   └── formFeedback     fence(form)
//	    ├── formInput
//	    └── container            panel
//	        └── container        container1
//	            ├── container1Feedback   fence(container1)
//	            ├── containerInput
//	            └── container1Feedback2  fence(container1)
type testPage struct {
	page                *tree.Node
	form                *tree.Node
	externalFeedback    *feedback.Collector
	formFeedback        *feedback.Collector
	externalLabel       *tree.Node
	formInput           *tree.Node
	panel               *tree.Node
	emptyPanel          *tree.Node
	container1          *tree.Node
	container1Input     *tree.Node
	container1Feedback  *feedback.Collector
	container1Feedback2 *feedback.Collector
}

func newTestPage(t *testing.T) *testPage {
	t.Helper()
	p := &testPage{
		page:            tree.NewContainer("page"),
		form:            tree.NewContainer("form"),
		externalLabel:   tree.NewLeaf("externalLabel"),
		formInput:       tree.NewLeaf("formInput"),
		panel:           tree.NewContainer("container"),
		emptyPanel:      tree.NewContainer("container"),
		container1:      tree.NewContainer("container"),
		container1Input: tree.NewLeaf("containerInput"),
	}
	p.externalFeedback = feedback.NewCollector("feedback")
	p.formFeedback = feedback.NewCollector("formFeedback", feedback.Fenced(p.form))
	p.container1Feedback = feedback.NewCollector("container1Feedback", feedback.Fenced(p.container1))
	p.container1Feedback2 = feedback.NewCollector("container1Feedback2", feedback.Fenced(p.container1))

	require.NoError(t, p.container1.Add(p.container1Feedback, p.container1Input, p.container1Feedback2))
	require.NoError(t, p.panel.Add(p.container1))

	formFeedbackContainer := tree.NewContainer("formFeedbackContainer")
	require.NoError(t, formFeedbackContainer.Add(p.formFeedback))
	require.NoError(t, p.form.Add(formFeedbackContainer, p.formInput, p.panel))
	require.NoError(t, p.page.Add(p.externalFeedback, p.externalLabel, p.form))
	return p
}

func (p *testPage) visibility(s *feedback.Store) []bool {
	return []bool{
		p.container1Feedback.AnyMessage(s),
		p.container1Feedback2.AnyMessage(s),
		p.formFeedback.AnyMessage(s),
		p.externalFeedback.AnyMessage(s),
	}
}

func TestQuery_Fencing(t *testing.T) {
	tests := []struct {
		name   string
		report func(p *testPage, s *feedback.Store)
		// container1Feedback, container1Feedback2, formFeedback, externalFeedback
		want []bool
	}{
		{
			name:   "container messages stay in the container",
			report: func(p *testPage, s *feedback.Store) { s.Error(p.container1Input, "error") },
			want:   []bool{true, true, false, false},
		},
		{
			name:   "form messages reach only the form feedback",
			report: func(p *testPage, s *feedback.Store) { s.Error(p.formInput, "error") },
			want:   []bool{false, false, true, false},
		},
		{
			name:   "external messages reach only the catch-all",
			report: func(p *testPage, s *feedback.Store) { s.Error(p.externalLabel, "error") },
			want:   []bool{false, false, false, true},
		},
		{
			name:   "session messages reach only the catch-all",
			report: func(p *testPage, s *feedback.Store) { s.ReportScopeless(domain.LevelError, "error") },
			want:   []bool{false, false, false, true},
		},
		{
			name:   "messages on the fenced node itself are fenced",
			report: func(p *testPage, s *feedback.Store) { s.Error(p.form, "error") },
			want:   []bool{false, false, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPage(t)
			s := feedback.NewStore()
			tt.report(p, s)
			assert.Equal(t, tt.want, p.visibility(s))
		})
	}
}

func TestQuery_SiblingCollectorsInsideFence(t *testing.T) {
	p := newTestPage(t)
	plain := feedback.NewCollector("plain", feedback.WithScope(p.container1))
	require.NoError(t, p.container1.Add(plain))

	s := feedback.NewStore()
	s.Error(p.container1Input, "error")

	assert.True(t, plain.AnyMessage(s), "unfenced collector scoped at the fence sees it")
	assert.True(t, p.container1Feedback.AnyMessage(s))
	assert.False(t, p.formFeedback.AnyMessage(s))
}

func TestQuery_Filtering(t *testing.T) {
	t.Run("info filtered out", func(t *testing.T) {
		p := newTestPage(t)
		p.container1Feedback.SetFilter(feedback.MinLevel(domain.LevelError))

		s := feedback.NewStore()
		s.Info(p.container1Input, "info")

		assert.Equal(t, []bool{false, true, false, false}, p.visibility(s))
	})

	t.Run("error passes", func(t *testing.T) {
		p := newTestPage(t)
		p.container1Feedback.SetFilter(feedback.MinLevel(domain.LevelError))

		s := feedback.NewStore()
		s.Error(p.container1Input, "info")

		assert.Equal(t, []bool{true, true, false, false}, p.visibility(s))
	})

	t.Run("filtering both fences does not re-open", func(t *testing.T) {
		p := newTestPage(t)
		p.container1Feedback.SetFilter(feedback.MinLevel(domain.LevelError))
		p.container1Feedback2.SetFilter(feedback.MinLevel(domain.LevelError))

		s := feedback.NewStore()
		s.Info(p.container1Input, "info")

		assert.Equal(t, []bool{false, false, false, false}, p.visibility(s))
	})
}

func TestQuery_Moving(t *testing.T) {
	t.Run("still fenced by the remaining fence", func(t *testing.T) {
		p := newTestPage(t)
		require.NoError(t, p.container1Feedback.RemoveSelf())

		s := feedback.NewStore()
		s.Error(p.container1Input, "error")

		assert.True(t, p.container1Feedback2.AnyMessage(s))
		assert.False(t, p.formFeedback.AnyMessage(s))
	})

	t.Run("removing the last fence re-opens on the next query", func(t *testing.T) {
		p := newTestPage(t)
		s := feedback.NewStore()
		s.Error(p.container1Input, "error")
		require.False(t, p.formFeedback.AnyMessage(s))

		require.NoError(t, p.container1Feedback.RemoveSelf())
		require.NoError(t, p.container1Feedback2.RemoveSelf())

		assert.True(t, p.formFeedback.AnyMessage(s))
		assert.False(t, p.externalFeedback.AnyMessage(s), "the form fence still holds")
	})

	t.Run("turning the fence off re-opens", func(t *testing.T) {
		p := newTestPage(t)
		s := feedback.NewStore()
		s.Error(p.formInput, "error")
		require.False(t, p.externalFeedback.AnyMessage(s))

		p.formFeedback.SetFence(false)

		assert.True(t, p.externalFeedback.AnyMessage(s))
	})
}

func TestQuery_ReplacingBackAndForth(t *testing.T) {
	p := newTestPage(t)
	s := feedback.NewStore()

	s.Error(p.container1Input, "error")
	require.True(t, p.container1Feedback.AnyMessage(s))
	require.False(t, p.formFeedback.AnyMessage(s))
	p.container1Feedback.MarkRendered(s)
	s.Sweep()

	for swap := range 5 {
		require.NoError(t, p.panel.ReplaceWith(p.emptyPanel), "swap %d forward", swap)
		assert.False(t, p.formFeedback.AnyMessage(s), "swap %d forward", swap)
		assert.False(t, p.externalFeedback.AnyMessage(s), "swap %d forward", swap)

		require.NoError(t, p.emptyPanel.ReplaceWith(p.panel), "swap %d backward", swap)
		s.Error(p.container1Input, "error")

		assert.True(t, p.container1Feedback.AnyMessage(s), "swap %d backward", swap)
		assert.False(t, p.formFeedback.AnyMessage(s), "swap %d backward", swap)
		assert.False(t, p.externalFeedback.AnyMessage(s), "swap %d backward", swap)

		p.container1Feedback.MarkRendered(s)
		s.Sweep()
	}
}

func TestQuery_DetachedOriginIsScopeless(t *testing.T) {
	p := newTestPage(t)
	s := feedback.NewStore()
	s.Info(p.container1Input, "pending")

	require.NoError(t, p.panel.ReplaceWith(p.emptyPanel))

	assert.True(t, p.externalFeedback.AnyMessage(s), "unresolved origins fall back to the catch-all")
	assert.False(t, p.formFeedback.AnyMessage(s))

	// Inside the detached subtree the origin still resolves.
	assert.True(t, p.container1Feedback.AnyMessage(s))
}

func TestQuery_OrderAndRestart(t *testing.T) {
	p := newTestPage(t)
	s := feedback.NewStore()
	s.Info(p.container1Input, "first")
	s.Warn(p.externalLabel, "outside")
	s.Error(p.container1Input, "second")

	seq := p.container1Feedback.Messages(s)
	var texts []string
	for m := range seq {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"first", "second"}, texts)

	s.Fatal(p.container1, "third")
	again := slices.Collect(seq)
	require.Len(t, again, 3)
	assert.Equal(t, "third", again[2].Text)
	assert.Less(t, again[0].Seq, again[1].Seq)
	assert.True(t, p.container1Feedback.AnyMessageAt(s, domain.LevelFatal))
}

func TestQuery_FencesListing(t *testing.T) {
	p := newTestPage(t)
	fences := feedback.Fences(p.formInput)
	require.Len(t, fences, 2)
	assert.Same(t, p.form, fences[0])
	assert.Same(t, p.container1, fences[1])
}
