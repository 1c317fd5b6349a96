/*
Package arbor renders trees of UI components and routes user-facing feedback
messages to the collectors that should display them.

# Concept

A page is a tree of components built fresh for every render from a layout
(YAML, Loam documents or the dsl package). Components report feedback
against themselves; feedback collectors placed in the tree decide which
messages they show. A fenced collector claims the messages reported inside
its scope so that collectors outside do not repeat them. Messages that were
not rendered survive to the next turn of the session.

Failures raised while rendering are dispatched to the behaviors of the
failing component and its ancestors. A behavior may redirect the render to
another page, which shares the feedback of the failed attempt.

# Usage

	eng, err := arbor.New("./pages")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := eng.Report(ctx, "session-123", domain.LevelSuccess, "Saved"); err != nil {
		log.Fatal(err)
	}

	view, err := eng.Render(ctx, "session-123", "checkout")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(view.Output)

The CLI in cmd/arbor renders pages from a directory, serves them over HTTP
or exposes them as MCP tools.
*/
package arbor
