package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/internal/presentation/tui"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/arbor/pkg/adapters/mcp"
	"github.com/aretw0/arbor/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds graceful shutdown of the servers.
const ShutdownTimeout = 5 * time.Second

// RunRender renders one page for a session and writes it to w, as JSON
// when asJSON is set.
func RunRender(ctx context.Context, rt *Runtime, w io.Writer, sessionID, page string, asJSON bool) error {
	view, err := rt.Engine.Render(ctx, sessionID, page)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return tui.WriteView(w, view)
}

// RunReport queues a message for the session's next render.
func RunReport(ctx context.Context, rt *Runtime, sessionID, level, text string) error {
	parsed, err := domain.ParseLevel(level)
	if err != nil {
		return err
	}
	return rt.Engine.Report(ctx, sessionID, parsed, text)
}

// RunPages lists the available pages, one per line.
func RunPages(ctx context.Context, rt *Runtime, w io.Writer) error {
	pages, err := rt.Engine.Pages(ctx)
	if err != nil {
		return err
	}
	for _, p := range pages {
		fmt.Fprintln(w, p)
	}
	return nil
}

// RunGraph writes the Mermaid graph of a page. With a session, the page is
// rendered first and collectors show how many messages they displayed;
// that render consumes the session's pending feedback.
func RunGraph(ctx context.Context, rt *Runtime, w io.Writer, page, sessionID string) error {
	tree, err := rt.Engine.Inspect(ctx, page)
	if err != nil {
		return err
	}
	var view *domain.View
	if sessionID != "" {
		view, err = rt.Engine.Render(ctx, sessionID, page)
		if err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(*tree, view))
	return err
}

// RunWatch renders the page and renders it again whenever page definitions
// change, until ctx is done.
func RunWatch(ctx context.Context, rt *Runtime, w io.Writer, sessionID, page string) error {
	events, err := rt.Engine.Watch(ctx)
	if err != nil {
		return err
	}
	tui.PrintBanner(w, arbor.Version)
	printSystemMessage(w, "Watching '%s' for session '%s'.", page, sessionID)

	render := func() {
		if err := RunRender(ctx, rt, w, sessionID, page, false); err != nil {
			rt.Logger.Error("Render failed", "page", page, "err", err)
			printSystemMessage(w, "Render failed: %v", err)
		}
	}
	render()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			rt.Logger.Info("Pages changed, rendering again", "page", page)
			render()
		}
	}
}

// RunServe serves the HTTP API on addr until ctx is done.
func RunServe(ctx context.Context, rt *Runtime, addr string) error {
	srv := &http.Server{
		Addr: addr,
		Handler: httpAdapter.NewHandler(rt.Engine,
			httpAdapter.WithMetrics(rt.Registry),
			httpAdapter.WithLogger(rt.Logger),
		),
	}
	return serveUntilDone(ctx, rt, srv)
}

func serveUntilDone(ctx context.Context, rt *Runtime, srv *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.Logger.Info("Arbor server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", ShutdownTimeout, err)
		}
		rt.Logger.Info("Arbor server stopped")
		return nil
	})
	return g.Wait()
}

// RunMCP serves the MCP tools over stdio, or over SSE when addr is set.
func RunMCP(ctx context.Context, rt *Runtime, addr string) error {
	server := mcpAdapter.NewServer(rt.Engine, rt.Logger)
	if addr == "" {
		return server.ServeStdio()
	}
	return server.ServeSSE(ctx, addr, "http://localhost"+addr)
}

// RunValidate builds every page and reports the ones that do not build.
func RunValidate(ctx context.Context, rt *Runtime, w io.Writer) error {
	pages, err := rt.Engine.Pages(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, p := range pages {
		if _, err := rt.Engine.Inspect(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("page '%s': %w", p, err))
			continue
		}
		fmt.Fprintf(w, "ok  %s\n", p)
	}
	return errors.Join(errs...)
}
