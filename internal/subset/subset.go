// Package subset reduces a GraphQL schema to the part exercised by a set of
// operation documents.
package subset

import (
	"context"
	"log/slog"
	"time"

	"github.com/alecthomas/errors"

	eventbus "github.com/hanpama/schemasubset/internal/eventbus"
	events "github.com/hanpama/schemasubset/internal/events"
	language "github.com/hanpama/schemasubset/internal/language"
	schema "github.com/hanpama/schemasubset/internal/schema"
	usage "github.com/hanpama/schemasubset/internal/usage"
)

// Options configures a Subset call.
type Options struct {
	PropagateInputTypeFields bool
	ArgumentTypeClosure      bool
	Logger                   *slog.Logger
}

type Option func(*Options)

// WithPropagateInputTypeFields controls whether the field closure of input
// types referenced by variables is retained. Enabled by default.
func WithPropagateInputTypeFields(v bool) Option {
	return func(o *Options) { o.PropagateInputTypeFields = v }
}

// WithArgumentTypeClosure controls whether input types of every declared
// argument on a selected field are retained. Enabled by default.
func WithArgumentTypeClosure(v bool) Option {
	return func(o *Options) { o.ArgumentTypeClosure = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func defaultOptions() Options {
	return Options{
		PropagateInputTypeFields: true,
		ArgumentTypeClosure:      true,
		Logger:                   slog.New(slog.DiscardHandler),
	}
}

// Result is a successfully subset schema.
type Result struct {
	Schema *schema.Schema
	Usage  *usage.Usage
	Stats  Stats
}

// Subset returns a pruned copy of s containing only what docs reference. s is
// never modified.
func Subset(ctx context.Context, s *schema.Schema, docs []*language.QueryDocument, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, f := range opts {
		f(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.SubsetStart{Documents: len(docs), Types: s.Len()})

	res, err := run(ctx, s, docs, o)

	finish := events.SubsetFinish{Err: err, Duration: time.Since(start), TypesBefore: s.Len()}
	if res != nil {
		finish.TypesAfter = res.Stats.TypesAfter
	}
	eventbus.Publish(ctx, finish)
	return res, err
}

func run(ctx context.Context, s *schema.Schema, docs []*language.QueryDocument, o Options) (*Result, error) {
	if len(docs) == 0 {
		return nil, errNoDocuments
	}

	out := s.Clone()
	u := usage.Collect(out, docs,
		usage.WithPropagateInputTypeFields(o.PropagateInputTypeFields),
		usage.WithArgumentTypeClosure(o.ArgumentTypeClosure),
	)
	o.Logger.DebugContext(ctx, "usage collected",
		"documents", len(docs),
		"composites", len(u.Fields),
		"others", len(u.Other),
	)

	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	p := &pruner{schema: out, usage: u, stats: &Stats{}}
	p.onPass = func(name string, removed int, d time.Duration) {
		o.Logger.DebugContext(ctx, "prune pass", "pass", name, "removed", removed, "duration", d)
		eventbus.Publish(ctx, events.SubsetPass{Pass: name, Removed: removed, Duration: d})
	}
	if err := p.run(); err != nil {
		return nil, errors.Wrap(err, "prune")
	}
	if err := Validate(out); err != nil {
		return nil, errors.Wrap(err, "validate")
	}

	for _, t := range out.Types() {
		if (t.Kind == schema.TypeKindObject || t.Kind == schema.TypeKindInterface) && len(t.Fields) == 0 {
			o.Logger.WarnContext(ctx, "type retained without fields", "type", t.Name, "kind", t.Kind)
		}
	}
	o.Logger.InfoContext(ctx, "schema subset",
		"typesBefore", p.stats.TypesBefore,
		"typesAfter", p.stats.TypesAfter,
		"removedFields", p.stats.RemovedFields,
	)
	return &Result{Schema: out, Usage: u, Stats: *p.stats}, nil
}
