package schema

func builtinScalars() []*Type {
	return []*Type{
		{
			Name:        "String",
			Kind:        TypeKindScalar,
			Description: "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
			BuiltIn:     true,
		},
		{
			Name:        "Int",
			Kind:        TypeKindScalar,
			Description: "The `Int` scalar type represents non-fractional signed whole numeric values.",
			BuiltIn:     true,
		},
		{
			Name:        "Float",
			Kind:        TypeKindScalar,
			Description: "The `Float` scalar type represents signed double-precision fractional values.",
			BuiltIn:     true,
		},
		{
			Name:        "Boolean",
			Kind:        TypeKindScalar,
			Description: "The `Boolean` scalar type represents `true` or `false`.",
			BuiltIn:     true,
		},
		{
			Name:        "ID",
			Kind:        TypeKindScalar,
			Description: "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
			BuiltIn:     true,
		},
	}
}

func builtinDirectives() []*Directive {
	return []*Directive{
		{
			Name:        "include",
			Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
			Arguments: []*InputValue{
				{Name: "if", Description: "Included when true.", Type: NonNullType(NamedType("Boolean"))},
			},
			Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
			BuiltIn:   true,
		},
		{
			Name:        "skip",
			Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
			Arguments: []*InputValue{
				{Name: "if", Description: "Skipped when true.", Type: NonNullType(NamedType("Boolean"))},
			},
			Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
			BuiltIn:   true,
		},
		{
			Name:        "deprecated",
			Description: "Marks an element of a GraphQL schema as no longer supported.",
			Arguments: []*InputValue{
				{Name: "reason", Type: NamedType("String"), DefaultValue: `"No longer supported"`},
			},
			Locations: []string{"FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE"},
			BuiltIn:   true,
		},
		{
			Name:        "specifiedBy",
			Description: "Exposes a URL that specifies the behavior of this scalar.",
			Arguments: []*InputValue{
				{Name: "url", Type: NonNullType(NamedType("String"))},
			},
			Locations: []string{"SCALAR"},
			BuiltIn:   true,
		},
		{
			Name:        "oneOf",
			Description: "Indicates exactly one field must be supplied and this field must not be `null`.",
			Locations:   []string{"INPUT_OBJECT"},
			BuiltIn:     true,
		},
	}
}

func isBuiltinDirective(name string) bool {
	switch name {
	case "include", "skip", "deprecated", "specifiedBy", "oneOf":
		return true
	}
	return false
}
