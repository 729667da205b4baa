// Command domcensus counts the descendants of a DOM element by tag name and
// shows how many of them are visible in the viewport.
//
// Usage:
//
//	domcensus -html page.html -select '#main'             # print the table once
//	domcensus -url https://example.com -select main -tui  # terminal panel
//	domcensus -html page.html -serve 127.0.0.1:8470 -watch
//	domcensus -config domcensus.yaml -mcp                 # MCP tools on stdio
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domcensus/internal/browser"
	"github.com/hazyhaar/domcensus/internal/clipboard"
	"github.com/hazyhaar/domcensus/internal/config"
	"github.com/hazyhaar/domcensus/internal/htmltree"
	"github.com/hazyhaar/domcensus/internal/sink"
	"github.com/hazyhaar/domcensus/internal/store"
	"github.com/hazyhaar/domcensus/internal/tui"
	"github.com/hazyhaar/domcensus/internal/watch"
	"github.com/hazyhaar/domcensus/projection"
	"github.com/hazyhaar/domcensus/session"
)

const version = "0.1.0"

const visibilityHelp = `An element counts as visible when its computed display is not none, its
visibility is visible, its opacity is not 0, its bounding box has a non-zero
width and height, and that box intersects the viewport. Text, comment and
other non-element nodes are counted but never visible. Static HTML files are
laid out approximately: inline styles and the hidden attribute are honoured,
and every rendered element is given a 1x1 box at the top left of the page.`

type options struct {
	configPath string
	html       string
	url        string
	selector   string
	sort       string
	format     string
	locale     string
	serve      string
	logLevel   string
	logFile    string
	copy       bool
	export     bool
	tui        bool
	mcp        bool
	watch      bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to domcensus.yaml config file")
	flag.StringVar(&o.html, "html", "", "static HTML file to inspect (- for stdin)")
	flag.StringVar(&o.url, "url", "", "live page to inspect in Chrome")
	flag.StringVar(&o.selector, "select", "", "CSS selector of the element to census (default body)")
	flag.StringVar(&o.sort, "sort", "", "comma-separated header clicks, e.g. name,name or visible")
	flag.StringVar(&o.format, "format", "table", "output format: table, markdown, html, json")
	flag.StringVar(&o.locale, "locale", "", "BCP 47 locale for name collation and number grouping")
	flag.StringVar(&o.serve, "serve", "", "serve the HTML panel on this address")
	flag.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flag.StringVar(&o.logFile, "log-file", "", "write logs to this file instead of stderr")
	flag.BoolVar(&o.copy, "copy", false, "copy the table to the clipboard")
	flag.BoolVar(&o.export, "export", false, "export a report to the configured sinks")
	flag.BoolVar(&o.tui, "tui", false, "run the terminal panel")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools on stdio")
	flag.BoolVar(&o.watch, "watch", false, "recalculate when the HTML file changes")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: domcensus [flags] (-html <file> | -url <url>)\n\n")
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), "\n%s\n", visibilityHelp)
	}
	flag.Parse()

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, closeLog, err := newLogger(cfg.LogLevel, o.logFile, o.tui)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, o); err != nil {
		logger.Error("domcensus: fatal", "error", err)
		if o.tui {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and lets flags override it.
func loadConfig(o options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.html != "" {
		cfg.Source.HTML, cfg.Source.URL = o.html, ""
	}
	if o.url != "" {
		cfg.Source.URL, cfg.Source.HTML = o.url, ""
	}
	if o.selector != "" {
		cfg.Source.Selector = o.selector
	}
	if o.watch {
		cfg.Source.Watch = true
	}
	if o.locale != "" {
		cfg.Display.Locale = o.locale
	}
	if o.serve != "" {
		cfg.HTTP.Addr = o.serve
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if cfg.Source.HTML == "" && cfg.Source.URL == "" {
		return nil, errors.New("domcensus: need -html or -url (see -help)")
	}
	if cfg.Source.Watch && cfg.Source.HTML == "-" {
		return nil, errors.New("domcensus: -watch needs a file, not stdin")
	}
	switch o.format {
	case "table", "markdown", "html", "json":
	default:
		return nil, fmt.Errorf("domcensus: unknown format %q", o.format)
	}
	return cfg, cfg.Validate()
}

// newLogger builds the JSON logger. The terminal panel owns the screen, so
// without a log file its logs are dropped.
func newLogger(levelName, path string, quiet bool) (*slog.Logger, func(), error) {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("domcensus: open log file: %w", err)
		}
		w, closeFn = f, func() { f.Close() }
	case quiet:
		w = io.Discard
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), closeFn, nil
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, o options) error {
	src, err := openSource(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer src.close()

	copier, err := newCopier(logger, cfg, src.page)
	if err != nil {
		return err
	}

	// MCP owns stdout, so a stdout sink writes to stderr instead.
	out := io.Writer(os.Stdout)
	if o.mcp {
		out = os.Stderr
	}
	router, err := newRouter(logger, cfg, out)
	if err != nil {
		return err
	}
	defer router.Close()

	panel := session.New(session.Config{
		Inspector: src.inspector,
		Locale:    projection.ParseLocale(cfg.Display.Locale),
		Sink:      router,
		Copier:    copier,
		Logger:    logger,
	})

	if _, err := panel.Select(ctx, cfg.Source.Selector); err != nil {
		return err
	}
	if err := applySort(panel, o.sort); err != nil {
		return err
	}

	if cfg.Source.Watch {
		w := watch.New(cfg.Source.HTML, watch.Options{Logger: logger})
		go func() {
			err := w.OnChange(ctx, func() error {
				_, err := panel.Refresh(ctx)
				return err
			})
			if err != nil {
				logger.Error("domcensus: watcher stopped", "error", err)
			}
		}()
	}

	interactive := o.serve != "" || o.tui || o.mcp
	if !interactive {
		if err := printView(os.Stdout, panel.View(), o.format); err != nil {
			return err
		}
		if err := oneShotActions(ctx, logger, panel, o); err != nil {
			return err
		}
		if !cfg.Source.Watch {
			return nil
		}
		panel.OnChange(func(v projection.View) {
			if err := printView(os.Stdout, v, o.format); err != nil {
				logger.Warn("domcensus: print", "error", err)
			}
		})
		<-ctx.Done()
		return nil
	}

	if o.serve != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           panel.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		errc := make(chan error, 1)
		go func() {
			logger.Info("domcensus: panel listening", "addr", cfg.HTTP.Addr, "source", panel.Source())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("domcensus: shutdown", "error", err)
			}
		}()
		if !o.tui && !o.mcp {
			select {
			case <-ctx.Done():
				return nil
			case err := <-errc:
				return fmt.Errorf("serve: %w", err)
			}
		}
	}

	if o.tui {
		return runTUI(ctx, panel)
	}
	return runMCP(ctx, panel)
}

func runTUI(ctx context.Context, panel *session.Panel) error {
	prog := tea.NewProgram(tui.New(ctx, panel), tea.WithAltScreen(), tea.WithContext(ctx))
	// Send blocks while the program is inside Update, which is where most
	// panel changes originate.
	panel.OnChange(func(v projection.View) { go prog.Send(tui.ViewMsg{View: v}) })
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, panel *session.Panel) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "domcensus", Version: version}, nil)
	panel.RegisterMCP(srv)
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

// source is the inspected document and what must be released with it.
type source struct {
	inspector session.Inspector
	page      *browser.Tab
	close     func()
}

func openSource(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*source, error) {
	vp := cfg.Browser.Viewport
	if cfg.Source.HTML != "" {
		if cfg.Source.HTML != "-" {
			return &source{
				inspector: htmltree.NewFileInspector(cfg.Source.HTML, vp, logger),
				close:     func() {},
			}, nil
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		open := func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil }
		return &source{
			inspector: htmltree.NewInspector("stdin", open, vp, logger),
			close:     func() {},
		}, nil
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Headful:          cfg.Browser.Stealth == "headful",
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Viewport:         vp,
		NavigateTimeout:  cfg.Browser.NavigateTimeout,
		Logger:           logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, err
	}

	var tab *browser.Tab
	var err error
	if cfg.Browser.Attach {
		tab, err = browser.AttachTab(ctx, mgr, cfg.Source.URL)
	} else {
		tab, err = browser.OpenTab(ctx, mgr, cfg.Source.URL)
	}
	if err != nil {
		mgr.Close()
		return nil, err
	}
	return &source{
		inspector: browser.NewInspector(tab, logger),
		page:      tab,
		close: func() {
			tab.Close()
			mgr.Close()
		},
	}, nil
}

func newCopier(logger *slog.Logger, cfg *config.Config, tab *browser.Tab) (*clipboard.Chain, error) {
	available := map[string]clipboard.Strategy{
		"system": clipboard.System{},
		"page":   nil,
		"osc52":  clipboard.NewOSC52(os.Stderr),
		"manual": clipboard.NewManual(os.Stderr),
	}
	if tab != nil {
		available["page"] = browser.NewPageClipboard(tab)
	}
	strategies, err := clipboard.Select(cfg.Clipboard.Methods, available)
	if err != nil {
		return nil, err
	}
	return clipboard.NewChain(logger, strategies...), nil
}

func newRouter(logger *slog.Logger, cfg *config.Config, stdout io.Writer) (*sink.Router, error) {
	var sinks []sink.Sink
	for _, sc := range cfg.Export.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, sink.NewStdout(stdout))
		case "webhook":
			sinks = append(sinks, sink.NewWebhook(sc.URL, sink.WithWebhookLogger(logger)))
		case "file":
			sinks = append(sinks, sink.NewFile(sc.Path))
		case "sqlite":
			st, err := store.Open(sc.Path)
			if err != nil {
				for _, s := range sinks {
					s.Close()
				}
				return nil, err
			}
			sinks = append(sinks, st.Sink())
		default:
			logger.Warn("domcensus: unknown sink type", "type", sc.Type)
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, sink.NewFile(cfg.Export.Dir))
	}
	return sink.NewRouter(logger, sinks...), nil
}

// applySort replays header clicks on the default state.
func applySort(panel *session.Panel, clicks string) error {
	for _, name := range strings.Split(clicks, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		col, err := projection.ParseColumn(name)
		if err != nil {
			return err
		}
		panel.ClickHeader(col)
	}
	return nil
}

func oneShotActions(ctx context.Context, logger *slog.Logger, panel *session.Panel, o options) error {
	if o.copy {
		method, err := panel.Copy(ctx)
		if err != nil {
			return err
		}
		logger.Info("domcensus: copied", "method", method)
	}
	if o.export {
		r, err := panel.Export(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "exported %s\n", r.FileName())
	}
	return nil
}
