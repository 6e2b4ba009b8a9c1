package source

import (
	"context"

	"github.com/alecthomas/errors"
)

// InMemoryDiscovery serves sources held in memory, in the order given.
type InMemoryDiscovery struct {
	names    []string
	contents map[string]string
}

func NewInMemoryDiscovery(sources ...Source) *InMemoryDiscovery {
	d := &InMemoryDiscovery{contents: make(map[string]string)}
	for _, src := range sources {
		if _, ok := d.contents[src.Name]; !ok {
			d.names = append(d.names, src.Name)
		}
		d.contents[src.Name] = src.Content
	}
	return d
}

func (d *InMemoryDiscovery) List(ctx context.Context) ([]string, error) {
	return append([]string(nil), d.names...), nil
}

func (d *InMemoryDiscovery) Read(ctx context.Context, name string) (string, error) {
	content, ok := d.contents[name]
	if !ok {
		return "", errors.Errorf("source %q not found", name)
	}
	return content, nil
}
