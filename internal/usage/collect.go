package usage

import (
	language "github.com/hanpama/schemasubset/internal/language"
	schema "github.com/hanpama/schemasubset/internal/schema"
)

// Options controls how input types are followed during collection.
type Options struct {
	// PropagateInputTypeFields walks the full field closure of input object
	// types reached through variables. When false, an input object counts as
	// a single opaque type.
	PropagateInputTypeFields bool

	// ArgumentTypeClosure marks the input closure of every argument declared
	// on a selected field and on every custom directive definition, so that
	// retained definitions never reference a pruned argument type.
	ArgumentTypeClosure bool
}

type Option func(*Options)

func WithPropagateInputTypeFields(v bool) Option {
	return func(o *Options) { o.PropagateInputTypeFields = v }
}

func WithArgumentTypeClosure(v bool) Option {
	return func(o *Options) { o.ArgumentTypeClosure = v }
}

// DefaultOptions returns the complete collection mode.
func DefaultOptions() Options {
	return Options{PropagateInputTypeFields: true, ArgumentTypeClosure: true}
}

type collector struct {
	schema   *schema.Schema
	usage    *Usage
	opt      Options
	expanded map[string]bool
}

// Collect walks every operation and fragment definition of docs against s.
// Documents are assumed valid for s; nodes that do not resolve against the
// schema are skipped.
func Collect(s *schema.Schema, docs []*language.QueryDocument, opts ...Option) *Usage {
	opt := DefaultOptions()
	for _, f := range opts {
		f(&opt)
	}
	c := &collector{
		schema:   s,
		usage:    New(),
		opt:      opt,
		expanded: make(map[string]bool),
	}

	if c.opt.ArgumentTypeClosure {
		for _, d := range s.Directives {
			if d.BuiltIn {
				continue
			}
			for _, arg := range d.Arguments {
				c.inputClosure(arg.Type.GetNamedType())
			}
		}
	}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, op := range doc.Operations {
			c.operation(op)
		}
		for _, frag := range doc.Fragments {
			c.fragment(frag)
		}
	}
	return c.usage
}

func (c *collector) rootType(op language.Operation) *schema.Type {
	switch op {
	case language.Query:
		return c.schema.GetQueryType()
	case language.Mutation:
		return c.schema.GetMutationType()
	case language.Subscription:
		return c.schema.GetSubscriptionType()
	}
	return nil
}

func (c *collector) operation(op *language.OperationDefinition) {
	for _, v := range op.VariableDefinitions {
		c.variable(v)
	}
	c.directives(op.Directives)
	c.selectionSet(c.rootType(op.Operation), op.SelectionSet)
}

func (c *collector) fragment(frag *language.FragmentDefinition) {
	for _, v := range frag.VariableDefinition {
		c.variable(v)
	}
	scope := c.schema.Lookup(frag.TypeCondition)
	c.markScope(scope)
	c.directives(frag.Directives)
	c.selectionSet(scope, frag.SelectionSet)
}

// variable marks the declared input type together with its field closure.
// Input types are referenced wholesale: no selection syntax exists for them.
func (c *collector) variable(v *language.VariableDefinition) {
	if v.Type == nil {
		return
	}
	name := v.Type.Name()
	c.inputClosure(name)
	c.value(name, v.DefaultValue)
	c.directives(v.Directives)
}

func (c *collector) selectionSet(parent *schema.Type, set language.SelectionSet) {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *language.Field:
			c.field(parent, sel)
		case *language.InlineFragment:
			scope := parent
			if sel.TypeCondition != "" {
				scope = c.schema.Lookup(sel.TypeCondition)
				c.markScope(scope)
			}
			c.directives(sel.Directives)
			c.selectionSet(scope, sel.SelectionSet)
		case *language.FragmentSpread:
			// The fragment body is visited once through its definition.
			c.directives(sel.Directives)
		}
	}
}

func (c *collector) field(parent *schema.Type, f *language.Field) {
	c.directives(f.Directives)
	if parent == nil {
		return
	}
	c.usage.MarkField(parent.Name, f.Name)

	switch f.Name {
	case "__typename":
		c.markNamed("String")
		return
	case "__type":
		for _, arg := range f.Arguments {
			if arg.Name == "name" {
				c.value("String", arg.Value)
			}
		}
		return
	case "__schema":
		return
	}

	if !parent.IsComposite() {
		return
	}
	def := parent.Field(f.Name)
	if def == nil {
		return
	}
	named := def.Type.GetNamedType()
	c.markNamed(named)

	for _, arg := range f.Arguments {
		argDef := def.Argument(arg.Name)
		if argDef == nil {
			continue
		}
		c.value(argDef.Type.GetNamedType(), arg.Value)
	}
	if c.opt.ArgumentTypeClosure {
		for _, argDef := range def.Arguments {
			c.inputClosure(argDef.Type.GetNamedType())
		}
	}

	c.selectionSet(c.schema.Lookup(named), f.SelectionSet)
}

func (c *collector) directives(list language.DirectiveList) {
	for _, d := range list {
		def := c.schema.Directive(d.Name)
		if def == nil {
			continue
		}
		for _, arg := range d.Arguments {
			argDef := def.Argument(arg.Name)
			if argDef == nil {
				continue
			}
			c.value(argDef.Type.GetNamedType(), arg.Value)
		}
	}
}

// value marks the input type expected at v and descends into list items and
// object fields, resolving each nested position against the schema.
func (c *collector) value(typeName string, v *language.Value) {
	if v == nil {
		return
	}
	c.markNamed(typeName)
	switch v.Kind {
	case language.ListValue:
		for _, item := range v.Children {
			c.value(typeName, item.Value)
		}
	case language.ObjectValue:
		t := c.schema.Lookup(typeName)
		if t == nil || t.Kind != schema.TypeKindInputObject {
			return
		}
		for _, child := range v.Children {
			f := t.InputField(child.Name)
			if f == nil {
				continue
			}
			c.value(f.Type.GetNamedType(), child.Value)
		}
	}
}

// inputClosure marks name and, for input objects, every type reachable
// through their fields. Recursive input types stop at the first revisit.
func (c *collector) inputClosure(name string) {
	c.markNamed(name)
	if !c.opt.PropagateInputTypeFields || c.expanded[name] {
		return
	}
	t := c.schema.Lookup(name)
	if t == nil || t.Kind != schema.TypeKindInputObject {
		return
	}
	c.expanded[name] = true
	for _, f := range t.InputFields {
		c.inputClosure(f.Type.GetNamedType())
	}
}

func (c *collector) markScope(t *schema.Type) {
	switch {
	case t == nil:
	case t.IsComposite():
		c.usage.MarkComposite(t.Name)
	default:
		c.usage.MarkType(t.Name)
	}
}

func (c *collector) markNamed(name string) {
	c.markScope(c.schema.Lookup(name))
}
