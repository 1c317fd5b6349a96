package arbor_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/feedback"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...arbor.Option) *arbor.Engine {
	t.Helper()

	b := dsl.New()
	b.Page("home").
		Feedback("top").End().
		Label("greeting", "Hello")

	b.Page("checkout").
		Feedback("top").End().
		Broken("payment", "no gateway").
		ReportFailures(domain.LevelError, "Payment is unavailable").
		Redirect("oops")

	b.Page("oops").
		Feedback("feedback").End().
		Label("sorry", "Something went wrong")

	source, err := b.Build()
	require.NoError(t, err)

	eng, err := arbor.New("", append([]arbor.Option{arbor.WithSource(source)}, opts...)...)
	require.NoError(t, err)
	return eng
}

func texts(view *domain.View) []string {
	var out []string
	for _, c := range view.Feedback {
		for _, m := range c.Messages {
			out = append(out, m.Text)
		}
	}
	return out
}

func TestEngine_Render_ConsumesRenderedFeedback(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Report(ctx, "s1", domain.LevelSuccess, "Saved"))

	view, err := eng.Render(ctx, "s1", "home")
	require.NoError(t, err)
	assert.Equal(t, "s1", view.SessionID)
	assert.Equal(t, "home", view.Page)
	assert.Equal(t, 0, view.Restarts)
	assert.Equal(t, "# home\n\n- **top** (feedback)\n  - SUCCESS Saved\n- greeting: Hello\n", view.Output)
	assert.Equal(t, []string{"Saved"}, texts(view))

	view, err = eng.Render(ctx, "s1", "home")
	require.NoError(t, err)
	assert.Equal(t, "# home\n\n- **top** (feedback)\n- greeting: Hello\n", view.Output)
	assert.Empty(t, texts(view))
}

func TestEngine_Render_SessionsAreIsolated(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Report(ctx, "s1", domain.LevelInfo, "for s1"))

	view, err := eng.Render(ctx, "s2", "home")
	require.NoError(t, err)
	assert.Empty(t, texts(view))

	view, err = eng.Render(ctx, "s1", "home")
	require.NoError(t, err)
	assert.Equal(t, []string{"for s1"}, texts(view))
}

func TestEngine_Render_Redirect(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Report(ctx, "s1", domain.LevelInfo, "Cart updated"))

	view, err := eng.Render(ctx, "s1", "checkout")
	require.NoError(t, err)
	assert.Equal(t, "checkout", view.Requested)
	assert.Equal(t, "oops", view.Page)
	assert.Equal(t, 1, view.Restarts)

	require.Len(t, view.Feedback, 1)
	assert.Equal(t, "oops:feedback", view.Feedback[0].Path)
	assert.Equal(t, []string{"Cart updated", "Payment is unavailable"}, texts(view))
}

func TestEngine_Render_KeepsFeedbackWhenPageIsMissing(t *testing.T) {
	log := memory.NewLog()
	eng := newEngine(t, arbor.WithSessionLog(log))
	ctx := context.Background()

	require.NoError(t, eng.Report(ctx, "s1", domain.LevelWarning, "Low stock"))

	_, err := eng.Render(ctx, "s1", "missing")
	require.Error(t, err)

	entries, err := log.Entries(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	view, err := eng.Render(ctx, "s1", "home")
	require.NoError(t, err)
	assert.Equal(t, []string{"Low stock"}, texts(view))
}

func TestEngine_Render_Hooks(t *testing.T) {
	metrics := observability.NewMetrics()
	eng := newEngine(t, arbor.WithLifecycleHooks(metrics.Hooks()))
	ctx := context.Background()

	require.NoError(t, eng.Report(ctx, "s1", domain.LevelInfo, "hello"))
	_, err := eng.Render(ctx, "s1", "checkout")
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PageInitializations), "checkout and oops")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Reports.WithLabelValues("info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Reports.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Failures.WithLabelValues(observability.OutcomeRedirected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Restarts))
}

func TestEngine_Pages(t *testing.T) {
	eng := newEngine(t)
	pages, err := eng.Pages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"checkout", "home", "oops"}, pages)
}

func TestEngine_Inspect(t *testing.T) {
	eng := newEngine(t)
	view, err := eng.Inspect(context.Background(), "checkout")
	require.NoError(t, err)

	assert.Equal(t, "checkout", view.ID)
	assert.Equal(t, "page", view.Kind)
	assert.True(t, view.Container)
	assert.False(t, view.Initialized)
	assert.Equal(t, 2, view.Behaviors)
	require.Len(t, view.Children, 2)
	assert.Equal(t, "checkout:top", view.Children[0].Path)
	assert.Equal(t, "feedback", view.Children[0].Kind)
	assert.Equal(t, "broken", view.Children[1].Kind)
	assert.False(t, view.Children[1].Container)

	_, err = eng.Inspect(context.Background(), "missing")
	assert.Error(t, err)
}

// bannerCollector is a collector kind built by embedding.
type bannerCollector struct {
	feedback.Collector
}

func TestDescribe_EmbeddedCollectorFence(t *testing.T) {
	page := tree.NewContainer("profile")
	banner := &bannerCollector{}
	banner.Init(banner, "banner")
	banner.SetFence(true)
	require.NoError(t, page.Add(banner, feedback.NewCollector("plain")))

	view := arbor.Describe(page)
	require.Len(t, view.Children, 2)
	assert.Equal(t, "profile:banner", view.Children[0].Path)
	assert.True(t, view.Children[0].Fence)
	assert.False(t, view.Children[1].Fence)
}

func TestNew_RequiresDirWithoutSource(t *testing.T) {
	_, err := arbor.New("")
	assert.Error(t, err)
}

func TestEngine_Watch_NotSupported(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.Watch(context.Background())
	assert.ErrorIs(t, err, arbor.ErrNotWatchable)
}
