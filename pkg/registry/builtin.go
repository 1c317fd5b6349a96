package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/feedback"
	"github.com/aretw0/arbor/pkg/tree"
)

// Built-in kind names.
const (
	KindContainer = "container"
	KindPage      = "page"
	KindLabel     = "label"
	KindNotice    = "notice"
	KindBroken    = "broken"
	KindFeedback  = "feedback"
)

// Built-in behavior names.
const (
	BehaviorRedirect = "redirect"
	BehaviorLog      = "log"
	BehaviorReport   = "report"
)

// ErrBroken is the failure raised by Broken components.
var ErrBroken = errors.New("broken component")

// Label is a leaf that renders static text.
type Label struct {
	tree.Node
	Text string
}

// NewLabel creates a label.
func NewLabel(id, text string) *Label {
	l := &Label{Text: text}
	l.InitLeaf(l, id)
	return l
}

// Content returns the label text.
func (l *Label) Content() string { return l.Text }

// Notice reports its text against itself when it is initialized, so the
// message is routed like any other component feedback.
type Notice struct {
	tree.Node
	Level domain.Level
	Text  string
}

// NewNotice creates a notice.
func NewNotice(id string, level domain.Level, text string) *Notice {
	n := &Notice{Level: level, Text: text}
	n.InitLeaf(n, id)
	return n
}

func (n *Notice) OnInitialize() {
	n.Node.OnInitialize()
	feedback.Report(n, n.Level, n.Text)
}

// Broken fails every time it is prepared for render.
type Broken struct {
	tree.Node
	Message string
}

// NewBroken creates a broken component.
func NewBroken(id, message string) *Broken {
	b := &Broken{Message: message}
	b.InitLeaf(b, id)
	return b
}

func (b *Broken) OnBeforeRender() {
	b.Node.OnBeforeRender()
	panic(fmt.Errorf("%w: %s", ErrBroken, b.Message))
}

type textProps struct {
	Text string `mapstructure:"text"`
}

type noticeProps struct {
	Level string `mapstructure:"level"`
	Text  string `mapstructure:"text"`
}

type brokenProps struct {
	Message string `mapstructure:"message"`
}

// RegisterBuiltins adds the built-in kinds and behaviors to r.
func RegisterBuiltins(r *Registry) {
	container := func(id string, _ Props) (tree.Component, error) {
		return tree.NewContainer(id), nil
	}
	r.Register(KindContainer, container)
	r.Register(KindPage, container)

	r.Register(KindLabel, func(id string, props Props) (tree.Component, error) {
		var p textProps
		if err := props.Decode(&p); err != nil {
			return nil, err
		}
		return NewLabel(id, p.Text), nil
	})

	r.Register(KindNotice, func(id string, props Props) (tree.Component, error) {
		p := noticeProps{Level: "info"}
		if err := props.Decode(&p); err != nil {
			return nil, err
		}
		level, err := domain.ParseLevel(p.Level)
		if err != nil {
			return nil, err
		}
		return NewNotice(id, level, p.Text), nil
	})

	r.Register(KindBroken, func(id string, props Props) (tree.Component, error) {
		p := brokenProps{Message: "failure"}
		if err := props.Decode(&p); err != nil {
			return nil, err
		}
		return NewBroken(id, p.Message), nil
	})

	r.Register(KindFeedback, func(id string, _ Props) (tree.Component, error) {
		return feedback.NewCollector(id), nil
	})

	r.RegisterBehavior(BehaviorRedirect, newRedirect)
	r.RegisterBehavior(BehaviorLog, newLog)
	r.RegisterBehavior(BehaviorReport, newReport)
}

// Redirect restarts the render with another page. The target page shares
// the feedback store of the failing tree.
type Redirect struct {
	Target string
	pages  PageFunc
}

func newRedirect(props Props, env Env) (tree.Behavior, error) {
	var p struct {
		Target string `mapstructure:"target"`
	}
	if err := props.Decode(&p); err != nil {
		return nil, err
	}
	if p.Target == "" {
		return nil, errors.New("redirect behavior requires a target")
	}
	if env.Pages == nil {
		return nil, errors.New("redirect behavior requires a page source")
	}
	return &Redirect{Target: p.Target, pages: env.Pages}, nil
}

func (r *Redirect) OnFailure(ctx context.Context, c tree.Component, _ error) error {
	page, err := r.pages(ctx, r.Target)
	if err != nil {
		return fmt.Errorf("redirect to '%s': %w", r.Target, err)
	}
	if store, ok := feedback.StoreOf(c); ok {
		feedback.Attach(page, store)
	}
	return tree.Restart(page)
}

// Log writes failures to the logger and lets the cascade continue.
type Log struct {
	Level  slog.Level
	logger *slog.Logger
}

func newLog(props Props, env Env) (tree.Behavior, error) {
	var p struct {
		Level string `mapstructure:"level"`
	}
	if err := props.Decode(&p); err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if p.Level != "" {
		if err := level.UnmarshalText([]byte(p.Level)); err != nil {
			return nil, fmt.Errorf("log behavior: %w", err)
		}
	}
	return &Log{Level: level, logger: env.Logger}, nil
}

func (l *Log) OnFailure(ctx context.Context, c tree.Component, failure error) error {
	l.logger.Log(ctx, l.Level, "component failed", "path", c.AsNode().Address(), "error", failure)
	return nil
}

// Report turns a failure into a scope-less feedback message, so it outlives
// the failing tree and shows up on whatever page renders next.
type Report struct {
	Level domain.Level
	Text  string
}

func newReport(props Props, _ Env) (tree.Behavior, error) {
	p := noticeProps{Level: "error"}
	if err := props.Decode(&p); err != nil {
		return nil, err
	}
	level, err := domain.ParseLevel(p.Level)
	if err != nil {
		return nil, err
	}
	return &Report{Level: level, Text: p.Text}, nil
}

func (r *Report) OnFailure(_ context.Context, c tree.Component, failure error) error {
	store, ok := feedback.StoreOf(c)
	if !ok {
		return nil
	}
	text := r.Text
	if text == "" {
		text = failure.Error()
	}
	store.ReportScopeless(r.Level, text)
	return nil
}
