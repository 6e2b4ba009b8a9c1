package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/errors"
	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/schemasubset/internal/config"
	"github.com/hanpama/schemasubset/internal/eventbus"
	"github.com/hanpama/schemasubset/internal/language"
	"github.com/hanpama/schemasubset/internal/metrics"
	"github.com/hanpama/schemasubset/internal/otel"
	"github.com/hanpama/schemasubset/internal/schema"
	"github.com/hanpama/schemasubset/internal/server"
	"github.com/hanpama/schemasubset/internal/source"
	"github.com/hanpama/schemasubset/internal/subset"
	"github.com/hanpama/schemasubset/internal/usage"
)

type Globals struct {
	Version      kong.VersionFlag `help:"Print the version and exit."`
	Config       string           `help:"YAML configuration file." short:"c" type:"path" placeholder:"FILE"`
	LogLevel     string           `help:"Log level: debug, info, warn or error." placeholder:"LEVEL"`
	LogJSON      bool             `help:"Log as JSON." name:"log-json"`
	OTelEndpoint string           `help:"OTLP/gRPC collector endpoint; empty disables tracing." name:"otel-endpoint" placeholder:"ADDR"`
	OTelService  string           `help:"Service name reported in traces." name:"otel-service"`
}

// Inputs are shared by the commands that read a schema and documents.
type Inputs struct {
	Schema                     []string `help:"Schema file globs or directories. Repeatable." short:"s" placeholder:"GLOB"`
	Documents                  []string `arg:"" optional:"" help:"Operation document globs or directories." placeholder:"GLOB"`
	NoPropagateInputTypeFields bool     `help:"Treat input object types reached through variables as opaque."`
}

type SubsetCmd struct {
	Inputs
	Out string `help:"Write the subset SDL to this file instead of stdout." short:"o" placeholder:"FILE"`
}

type UsageCmd struct {
	Inputs
}

type ServeCmd struct {
	Addr    string        `help:"HTTP listen address." placeholder:"ADDR"`
	Timeout time.Duration `help:"Per-request timeout."`
	Pretty  bool          `help:"Pretty-print JSON responses."`
	CORS    []string      `help:"Allowed CORS origin. Repeatable." name:"cors" placeholder:"ORIGIN"`
}

var cli struct {
	Globals

	Subset SubsetCmd `cmd:"" help:"Prune a schema down to what the documents use and print the SDL."`
	Usage  UsageCmd  `cmd:"" help:"Print the fields and types the documents use, as JSON."`
	Serve  ServeCmd  `cmd:"" help:"Run the HTTP subsetting service."`
}

// env is bound into every command's Run method.
type env struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "schemasubset:", err)
		os.Exit(1)
	}
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli.Globals = Globals{}
	cli.Subset, cli.Usage, cli.Serve = SubsetCmd{}, UsageCmd{}, ServeCmd{}

	parser, err := kong.New(&cli,
		kong.Name("schemasubset"),
		kong.Description("Reduce a GraphQL schema to the parts used by a set of operation documents."),
		kong.Vars{"version": version()},
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return errors.WithStack(err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := cli.Globals.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, cfg.Log)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	shutdown, err := otel.Setup(ctx, cfg.OTel.Endpoint, cfg.OTel.Service)
	if err != nil {
		return errors.Wrap(err, "otel setup")
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("otel shutdown", "error", err)
		}
	}()

	return kctx.Run(&env{ctx: ctx, cfg: cfg, logger: logger, stdout: stdout})
}

// load reads the config file and applies global flag overrides.
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogJSON {
		cfg.Log.JSON = true
	}
	if g.OTelEndpoint != "" {
		cfg.OTel.Endpoint = g.OTelEndpoint
	}
	if g.OTelService != "" {
		cfg.OTel.Service = g.OTelService
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.Log) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
			NoColor:    w != os.Stderr,
		})
	}
	return slog.New(handler), nil
}

// apply merges the command's inputs into cfg.
func (in *Inputs) apply(cfg *config.Config) error {
	if len(in.Schema) > 0 {
		cfg.Schema = in.Schema
	}
	if len(in.Documents) > 0 {
		cfg.Documents = in.Documents
	}
	if in.NoPropagateInputTypeFields {
		cfg.PropagateInputTypeFields = false
	}
	return cfg.Validate()
}

func (in *Inputs) load(e *env) (*schema.Schema, []*language.QueryDocument, error) {
	if err := in.apply(e.cfg); err != nil {
		return nil, nil, err
	}
	schemaFiles, err := source.NewFileSystemDiscovery(e.cfg.Schema...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "schema")
	}
	s, err := source.LoadSchema(e.ctx, schemaFiles)
	if err != nil {
		return nil, nil, errors.Wrap(err, "schema")
	}

	var docs []*language.QueryDocument
	if len(e.cfg.Documents) > 0 {
		docFiles, err := source.NewFileSystemDiscovery(e.cfg.Documents...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "documents")
		}
		docs, err = source.LoadDocuments(e.ctx, docFiles)
		if err != nil {
			return nil, nil, errors.Wrap(err, "documents")
		}
	}
	e.logger.Debug("inputs loaded", "types", s.Len(), "documents", len(docs))
	return s, docs, nil
}

func (c *SubsetCmd) Run(e *env) error {
	if c.Out != "" {
		e.cfg.Output = c.Out
	}
	s, docs, err := c.load(e)
	if err != nil {
		return err
	}
	res, err := subset.Subset(e.ctx, s, docs,
		subset.WithPropagateInputTypeFields(e.cfg.PropagateInputTypeFields),
		subset.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}

	sdl := schema.Render(res.Schema)
	if e.cfg.Output == "" {
		_, err := io.WriteString(e.stdout, sdl)
		return errors.WithStack(err)
	}
	if err := os.WriteFile(e.cfg.Output, []byte(sdl), 0o644); err != nil {
		return errors.WithStack(err)
	}
	e.logger.Info("subset written", "path", e.cfg.Output, "types", res.Stats.TypesAfter)
	return nil
}

func (c *UsageCmd) Run(e *env) error {
	s, docs, err := c.load(e)
	if err != nil {
		return err
	}
	u := usage.Collect(s, docs, usage.WithPropagateInputTypeFields(e.cfg.PropagateInputTypeFields))
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(u.Report()))
}

func (c *ServeCmd) Run(e *env) error {
	cfg := e.cfg.Server
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}

	m := metrics.New()
	defer m.Register()()

	opts := []server.Option{
		server.WithTimeout(cfg.Timeout),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
		server.WithMetrics(m.Handler()),
		server.WithLogger(e.logger),
	}
	if c.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(c.CORS) > 0 {
		opts = append(opts, server.WithCORS(c.CORS...))
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(e.ctx)
	g.Go(func() error {
		e.logger.Info("subset server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return errors.WithStack(err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
