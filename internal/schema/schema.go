package schema

import "encoding/json"

// Schema is a GraphQL type registry. Types keep the order in which they were
// declared; every operation that reports types reports them in that order.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Directives       []*Directive
	Description      string

	types []*Type
	index map[string]*Type
}

// NewSchema returns an empty schema with the conventional root type names.
func NewSchema() *Schema {
	return &Schema{
		QueryType: "Query",
		index:     make(map[string]*Type),
	}
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Lookup(s.QueryType) }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Lookup(s.MutationType) }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Lookup(s.SubscriptionType) }

// Lookup returns the named type or nil.
func (s *Schema) Lookup(name string) *Type {
	if name == "" {
		return nil
	}
	return s.index[name]
}

// Types returns the registered types in declaration order.
func (s *Schema) Types() []*Type { return s.types }

// Len returns the number of registered types.
func (s *Schema) Len() int { return len(s.types) }

// AddType registers t. A type with the same name replaces the previous one in place.
func (s *Schema) AddType(t *Type) *Schema {
	if s.index == nil {
		s.index = make(map[string]*Type)
	}
	if prev, ok := s.index[t.Name]; ok {
		for i, existing := range s.types {
			if existing == prev {
				s.types[i] = t
			}
		}
	} else {
		s.types = append(s.types, t)
	}
	s.index[t.Name] = t
	return s
}

// RetainTypes drops every type for which keep returns false and returns the
// names of the dropped types in declaration order.
func (s *Schema) RetainTypes(keep func(*Type) bool) (removed []string) {
	kept := s.types[:0:0]
	for _, t := range s.types {
		if keep(t) {
			kept = append(kept, t)
			continue
		}
		removed = append(removed, t.Name)
		delete(s.index, t.Name)
	}
	s.types = kept
	return removed
}

// Implementers returns the object types whose implements list contains iface.
func (s *Schema) Implementers(iface string) []*Type {
	var out []*Type
	for _, t := range s.types {
		if t.Kind == TypeKindObject && t.Implements(iface) {
			out = append(out, t)
		}
	}
	return out
}

// SubInterfaces returns the interface types whose implements list contains iface.
func (s *Schema) SubInterfaces(iface string) []*Type {
	var out []*Type
	for _, t := range s.types {
		if t.Kind == TypeKindInterface && t.Implements(iface) {
			out = append(out, t)
		}
	}
	return out
}

// Directive returns the directive definition with the given name or nil.
func (s *Schema) Directive(name string) *Directive {
	for _, d := range s.Directives {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// MarshalJSON encodes the schema with types as an ordered list.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		QueryType        string       `json:"queryType,omitempty"`
		MutationType     string       `json:"mutationType,omitempty"`
		SubscriptionType string       `json:"subscriptionType,omitempty"`
		Description      string       `json:"description,omitempty"`
		Types            []*Type      `json:"types"`
		Directives       []*Directive `json:"directives,omitempty"`
	}{
		QueryType:        s.QueryType,
		MutationType:     s.MutationType,
		SubscriptionType: s.SubscriptionType,
		Description:      s.Description,
		Types:            s.types,
		Directives:       s.Directives,
	})
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string        `json:"name"`
	Kind           TypeKind      `json:"kind"`
	Description    string        `json:"description,omitempty"`
	Fields         []*Field      `json:"fields,omitempty"`        // For OBJECT and INTERFACE
	Interfaces     []string      `json:"interfaces,omitempty"`    // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      `json:"possibleTypes,omitempty"` // For UNION
	EnumValues     []*EnumValue  `json:"enumValues,omitempty"`    // For ENUM
	InputFields    []*InputValue `json:"inputFields,omitempty"`   // For INPUT_OBJECT
	SpecifiedByURL *string       `json:"specifiedByURL,omitempty"`
	OneOf          bool          `json:"oneOf,omitempty"`
	BuiltIn        bool          `json:"-"`
}

// Field returns the output field with the given name or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InputField returns the input field with the given name or nil.
func (t *Type) InputField(name string) *InputValue {
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Implements reports whether iface is in the type's implements list.
func (t *Type) Implements(iface string) bool {
	for _, name := range t.Interfaces {
		if name == iface {
			return true
		}
	}
	return false
}

// IsComposite reports whether fields are selected on the type field by field.
func (t *Type) IsComposite() bool {
	return t.Kind == TypeKindObject || t.Kind == TypeKindInterface
}

// Field represents a field on an object or interface
type Field struct {
	Name              string        `json:"name"`
	Description       string        `json:"description,omitempty"`
	Type              *TypeRef      `json:"type"`
	Arguments         []*InputValue `json:"arguments,omitempty"`
	IsDeprecated      bool          `json:"isDeprecated,omitempty"`
	DeprecationReason string        `json:"deprecationReason,omitempty"`
}

// Argument returns the argument definition with the given name or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind `json:"kind"`
	OfType *TypeRef    `json:"ofType,omitempty"` // For List and NonNull
	Named  string      `json:"named,omitempty"`  // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// GetNamedType returns the innermost named type. List and Non-Null wrappers
// are skipped.
func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. [User!]!.
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindNamed:
		return t.Named
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	default:
		return ""
	}
}

type EnumValue struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	IsDeprecated      bool   `json:"isDeprecated,omitempty"`
	DeprecationReason string `json:"deprecationReason,omitempty"`
}

type InputValue struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        *TypeRef `json:"type"`
	// DefaultValue holds the default as a GraphQL literal; empty means none.
	DefaultValue      string `json:"defaultValue,omitempty"`
	IsDeprecated      bool   `json:"isDeprecated,omitempty"`
	DeprecationReason string `json:"deprecationReason,omitempty"`
}

type Directive struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Locations    []string      `json:"locations"`
	Arguments    []*InputValue `json:"arguments,omitempty"`
	IsRepeatable bool          `json:"isRepeatable,omitempty"`
	BuiltIn      bool          `json:"-"`
}

// Argument returns the argument definition with the given name or nil.
func (d *Directive) Argument(name string) *InputValue {
	for _, a := range d.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }
