// Package source finds and loads the GraphQL inputs of a subset run: one or
// more schema files and the operation documents checked against them.
package source

import (
	"context"

	"github.com/alecthomas/errors"
	"golang.org/x/sync/errgroup"

	language "github.com/hanpama/schemasubset/internal/language"
	schema "github.com/hanpama/schemasubset/internal/schema"
)

// Source is a named GraphQL text.
type Source struct {
	Name    string
	Content string
}

// Discovery lists and reads GraphQL sources.
type Discovery interface {
	// List returns source names in a stable order.
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) (string, error)
}

// maxParallelReads bounds concurrent reads in ReadAll.
const maxParallelReads = 8

// ReadAll reads every source listed by d. Reads run concurrently; the result
// keeps the order of List.
func ReadAll(ctx context.Context, d Discovery) ([]Source, error) {
	names, err := d.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list sources")
	}
	out := make([]Source, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, name := range names {
		g.Go(func() error {
			content, err := d.Read(ctx, name)
			if err != nil {
				return errors.Wrapf(err, "read %s", name)
			}
			out[i] = Source{Name: name, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadSchema parses every source of d as SDL and merges them into one schema.
func LoadSchema(ctx context.Context, d Discovery) (*schema.Schema, error) {
	sources, err := ReadAll(ctx, d)
	if err != nil {
		return nil, err
	}
	return ParseSchema(sources)
}

// ParseSchema merges SDL sources into one schema. Parse errors of all sources
// are reported together.
func ParseSchema(sources []Source) (*schema.Schema, error) {
	if len(sources) == 0 {
		return nil, errors.New("no schema sources")
	}
	docs := make([]*language.SchemaDocument, 0, len(sources))
	var errs []error
	for _, src := range sources {
		doc, err := language.ParseSchema(src.Name, src.Content)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return schema.Build(docs...)
}

// LoadDocuments parses every source of d as an executable document.
func LoadDocuments(ctx context.Context, d Discovery) ([]*language.QueryDocument, error) {
	sources, err := ReadAll(ctx, d)
	if err != nil {
		return nil, err
	}
	return ParseDocuments(sources)
}

// ParseDocuments parses operation documents, reporting parse errors of all
// sources together.
func ParseDocuments(sources []Source) ([]*language.QueryDocument, error) {
	docs := make([]*language.QueryDocument, 0, len(sources))
	var errs []error
	for _, src := range sources {
		doc, err := language.ParseQuery(src.Name, src.Content)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return docs, nil
}
