package subset

import (
	"time"

	schema "github.com/hanpama/schemasubset/internal/schema"
	usage "github.com/hanpama/schemasubset/internal/usage"
)

// Stats summarizes what pruning removed.
type Stats struct {
	TypesBefore       int      `json:"typesBefore"`
	TypesAfter        int      `json:"typesAfter"`
	RemovedTypes      []string `json:"removedTypes"`
	RemovedMembers    int      `json:"removedMembers"`
	RemovedFields     int      `json:"removedFields"`
	RemovedInterfaces int      `json:"removedInterfaces"`
}

type pruner struct {
	schema *schema.Schema
	usage  *usage.Usage
	stats  *Stats

	// onPass observes each completed pass.
	onPass func(name string, removed int, d time.Duration)
}

type pass struct {
	name string
	run  func(*pruner) (removed int, err error)
}

// The passes run in this order: every pass reads the registry as left by the
// previous ones.
var passes = []pass{
	{"types", (*pruner).removeTypes},
	{"unions", (*pruner).pruneUnions},
	{"interfaces", (*pruner).pruneInterfaces},
	{"objects", (*pruner).pruneObjects},
}

// Prune reduces s in place to the types and fields recorded in u. Interface
// field usage is propagated into u while pruning. Prune stops at the first
// structural violation and leaves s partially pruned; callers own s.
func Prune(s *schema.Schema, u *usage.Usage) (*Stats, error) {
	p := &pruner{schema: s, usage: u, stats: &Stats{}}
	return p.stats, p.run()
}

func (p *pruner) run() error {
	p.stats.TypesBefore = p.schema.Len()
	for _, ps := range passes {
		start := time.Now()
		removed, err := ps.run(p)
		if p.onPass != nil {
			p.onPass(ps.name, removed, time.Since(start))
		}
		if err != nil {
			return err
		}
	}
	p.stats.TypesAfter = p.schema.Len()
	return nil
}

// removeTypes drops every type that is neither a field-usage key nor a
// referenced non-composite type.
func (p *pruner) removeTypes() (int, error) {
	removed := p.schema.RetainTypes(func(t *schema.Type) bool {
		return p.usage.HasType(t.Name)
	})
	p.stats.RemovedTypes = removed

	if p.schema.GetMutationType() == nil {
		p.schema.MutationType = ""
	}
	if p.schema.GetSubscriptionType() == nil {
		p.schema.SubscriptionType = ""
	}
	return len(removed), nil
}

func (p *pruner) pruneUnions() (int, error) {
	removed := 0
	for _, t := range p.schema.Types() {
		if t.Kind != schema.TypeKindUnion {
			continue
		}
		members := t.PossibleTypes[:0:0]
		for _, member := range t.PossibleTypes {
			if p.schema.Lookup(member) == nil {
				removed++
				continue
			}
			members = append(members, member)
		}
		t.PossibleTypes = members
		if len(members) == 0 {
			p.stats.RemovedMembers += removed
			return removed, &UnionError{Union: t.Name}
		}
	}
	p.stats.RemovedMembers += removed
	return removed, nil
}

// pruneInterfaces keeps only used interface fields and marks every kept field
// as used on the interface's implementers. Super-interfaces are handled
// before the interfaces extending them so propagation reaches the whole
// hierarchy.
func (p *pruner) pruneInterfaces() (int, error) {
	removed := 0
	for _, iface := range p.interfaceOrder() {
		targets := append(p.schema.Implementers(iface.Name), p.schema.SubInterfaces(iface.Name)...)
		kept := iface.Fields[:0:0]
		for _, f := range iface.Fields {
			if !p.usage.HasField(iface.Name, f.Name) {
				removed++
				continue
			}
			kept = append(kept, f)
			for _, t := range targets {
				p.usage.MarkField(t.Name, f.Name)
			}
		}
		iface.Fields = kept
	}
	p.stats.RemovedFields += removed
	return removed, nil
}

func (p *pruner) interfaceOrder() []*schema.Type {
	var order []*schema.Type
	visited := make(map[string]bool)
	var visit func(t *schema.Type)
	visit = func(t *schema.Type) {
		if visited[t.Name] {
			return
		}
		visited[t.Name] = true
		for _, name := range t.Interfaces {
			if super := p.schema.Lookup(name); super != nil && super.Kind == schema.TypeKindInterface {
				visit(super)
			}
		}
		order = append(order, t)
	}
	for _, t := range p.schema.Types() {
		if t.Kind == schema.TypeKindInterface {
			visit(t)
		}
	}
	return order
}

// pruneObjects trims object fields to their usage (including propagated
// interface fields) and drops implemented interfaces that were never
// referenced at all. Interfaces' own implements lists are trimmed the same way.
func (p *pruner) pruneObjects() (int, error) {
	removed := 0
	for _, t := range p.schema.Types() {
		switch t.Kind {
		case schema.TypeKindObject:
			kept := t.Fields[:0:0]
			for _, f := range t.Fields {
				if !p.usage.HasField(t.Name, f.Name) {
					removed++
					continue
				}
				kept = append(kept, f)
			}
			p.stats.RemovedFields += len(t.Fields) - len(kept)
			t.Fields = kept
			removed += p.pruneImplements(t)
		case schema.TypeKindInterface:
			removed += p.pruneImplements(t)
		}
	}
	return removed, nil
}

func (p *pruner) pruneImplements(t *schema.Type) int {
	kept := t.Interfaces[:0:0]
	for _, name := range t.Interfaces {
		if p.usage.HasFields(name) {
			kept = append(kept, name)
		}
	}
	dropped := len(t.Interfaces) - len(kept)
	p.stats.RemovedInterfaces += dropped
	t.Interfaces = kept
	return dropped
}

// Validate checks the invariants that must hold after pruning.
func Validate(s *schema.Schema) error {
	if s.GetQueryType() == nil {
		return &MissingRootError{Type: s.QueryType}
	}
	return nil
}
