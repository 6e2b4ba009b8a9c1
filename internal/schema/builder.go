package schema

import (
	"strings"

	language "github.com/hanpama/schemasubset/internal/language"
)

type builder struct {
	schema     *Schema
	docs       []*language.SchemaDocument
	declared   map[string]bool
	violations []*Violation
}

// Build merges the given schema documents into a Schema. Definitions are
// registered in document order, after the built-in scalars; extensions are
// then applied in document order, appending to their base definitions.
func Build(docs ...*language.SchemaDocument) (*Schema, error) {
	b := &builder{
		schema:   NewSchema(),
		docs:     docs,
		declared: make(map[string]bool),
	}
	if err := b.build(); err != nil {
		return nil, err
	}
	return b.schema, nil
}

// BuildFromSDL parses a single SDL source and builds the corresponding Schema.
func BuildFromSDL(name, sdl string) (*Schema, error) {
	doc, err := language.ParseSchema(name, sdl)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

func (b *builder) build() error {
	for _, t := range builtinScalars() {
		b.schema.AddType(t)
	}
	b.schema.Directives = append(b.schema.Directives, builtinDirectives()...)

	b.populateDefinitions()
	b.checkExtensions()
	if len(b.violations) > 0 {
		return ValidationError(b.violations)
	}

	for _, doc := range b.docs {
		for _, node := range doc.Definitions {
			b.extendDefinition(b.schema.Lookup(node.Name), node)
		}
	}
	for _, doc := range b.docs {
		for _, node := range doc.Extensions {
			b.extendDefinition(b.schema.Lookup(node.Name), node)
		}
	}

	b.populateDirectiveDefinitions()
	b.processSchemaDefinitions()

	if len(b.violations) > 0 {
		return ValidationError(b.violations)
	}
	return nil
}

func (b *builder) addViolation(v ...*Violation) {
	b.violations = append(b.violations, v...)
}

func (b *builder) populateDefinitions() {
	for _, doc := range b.docs {
		for _, node := range doc.Definitions {
			if b.declared[node.Name] {
				b.addViolation(violationDefinitionAlreadyExists(node.Name, node.Position))
				continue
			}
			b.declared[node.Name] = true
			t := &Type{Name: node.Name, Kind: kindOf(node.Kind), Description: node.Description}
			// A redeclared built-in scalar replaces the built-in in place.
			b.schema.AddType(t)
		}
	}
}

func (b *builder) checkExtensions() {
	for _, doc := range b.docs {
		for _, node := range doc.Extensions {
			t := b.schema.Lookup(node.Name)
			if t == nil {
				b.addViolation(violationDefinitionNotFoundForExtension(node.Name, node.Position))
				continue
			}
			if t.Kind != kindOf(node.Kind) {
				b.addViolation(violationUnexpectedTypeForExtension(node, strings.ToLower(string(node.Kind))))
			}
		}
	}
}

func kindOf(kind language.DefinitionKind) TypeKind {
	switch kind {
	case language.Object:
		return TypeKindObject
	case language.Interface:
		return TypeKindInterface
	case language.Union:
		return TypeKindUnion
	case language.InputObject:
		return TypeKindInputObject
	case language.Enum:
		return TypeKindEnum
	case language.Scalar:
		return TypeKindScalar
	}
	panic("unreachable")
}

func (b *builder) extendDefinition(t *Type, node *language.Definition) {
	if t == nil || t.Kind != kindOf(node.Kind) {
		return
	}
	switch t.Kind {
	case TypeKindObject, TypeKindInterface:
		b.extendInterfaces(t, node)
		b.extendFields(t, node)
	case TypeKindUnion:
		b.extendUnion(t, node)
	case TypeKindInputObject:
		b.extendInput(t, node)
	case TypeKindEnum:
		b.extendEnum(t, node)
	case TypeKindScalar:
		if d := node.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				url := arg.Value.Raw
				t.SpecifiedByURL = &url
			}
		}
	}
}

func (b *builder) extendInterfaces(t *Type, node *language.Definition) {
	for _, name := range node.Interfaces {
		if t.Implements(name) {
			continue
		}
		if iface := b.schema.Lookup(name); iface == nil {
			b.addViolation(violationTypeNotFound(name, node.Position))
			continue
		}
		t.Interfaces = append(t.Interfaces, name)
	}
}

func (b *builder) extendFields(t *Type, node *language.Definition) {
	kind := strings.ToLower(string(node.Kind))
	for _, fieldNode := range node.Fields {
		if t.Field(fieldNode.Name) != nil {
			b.addViolation(violationDuplicateField(kind, fieldNode.Name, node.Name, fieldNode.Position))
			continue
		}
		f := &Field{
			Name:        fieldNode.Name,
			Description: fieldNode.Description,
			Type:        b.typeRef(fieldNode.Type),
		}
		b.applyDeprecation(fieldNode.Directives, &f.IsDeprecated, &f.DeprecationReason)
		for _, argNode := range fieldNode.Arguments {
			f.Arguments = append(f.Arguments, b.argument(argNode))
		}
		t.Fields = append(t.Fields, f)
	}
}

func (b *builder) extendUnion(t *Type, node *language.Definition) {
	for _, member := range node.Types {
		if containsString(t.PossibleTypes, member) {
			b.addViolation(violationDuplicateMember(member, node.Name, node.Position))
			continue
		}
		if b.schema.Lookup(member) == nil {
			b.addViolation(violationTypeNotFound(member, node.Position))
			continue
		}
		t.PossibleTypes = append(t.PossibleTypes, member)
	}
}

func (b *builder) extendInput(t *Type, node *language.Definition) {
	if node.Directives.ForName("oneOf") != nil {
		t.OneOf = true
	}
	for _, fieldNode := range node.Fields {
		if t.InputField(fieldNode.Name) != nil {
			b.addViolation(violationDuplicateField("input", fieldNode.Name, node.Name, fieldNode.Position))
			continue
		}
		in := &InputValue{
			Name:        fieldNode.Name,
			Description: fieldNode.Description,
			Type:        b.typeRef(fieldNode.Type),
		}
		if fieldNode.DefaultValue != nil {
			in.DefaultValue = fieldNode.DefaultValue.String()
		}
		b.applyDeprecation(fieldNode.Directives, &in.IsDeprecated, &in.DeprecationReason)
		t.InputFields = append(t.InputFields, in)
	}
}

func (b *builder) extendEnum(t *Type, node *language.Definition) {
	for _, valueNode := range node.EnumValues {
		duplicate := false
		for _, v := range t.EnumValues {
			if v.Name == valueNode.Name {
				duplicate = true
			}
		}
		if duplicate {
			b.addViolation(violationDuplicateEnumValue(valueNode.Name, node.Name, valueNode.Position))
			continue
		}
		v := &EnumValue{Name: valueNode.Name, Description: valueNode.Description}
		b.applyDeprecation(valueNode.Directives, &v.IsDeprecated, &v.DeprecationReason)
		t.EnumValues = append(t.EnumValues, v)
	}
}

func (b *builder) argument(node *language.ArgumentDefinition) *InputValue {
	in := &InputValue{
		Name:        node.Name,
		Description: node.Description,
		Type:        b.typeRef(node.Type),
	}
	if node.DefaultValue != nil {
		in.DefaultValue = node.DefaultValue.String()
	}
	b.applyDeprecation(node.Directives, &in.IsDeprecated, &in.DeprecationReason)
	return in
}

func (b *builder) applyDeprecation(directives language.DirectiveList, deprecated *bool, reason *string) {
	d := directives.ForName("deprecated")
	if d == nil {
		return
	}
	*deprecated = true
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		*reason = arg.Value.Raw
	}
}

func (b *builder) typeRef(node *language.Type) *TypeRef {
	if node == nil {
		return nil
	}
	if node.NonNull {
		return NonNullType(b.typeRef(&language.Type{
			NamedType: node.NamedType,
			Elem:      node.Elem,
			NonNull:   false,
			Position:  node.Position,
		}))
	}
	if node.Elem != nil {
		return ListType(b.typeRef(node.Elem))
	}
	if b.schema.Lookup(node.NamedType) == nil {
		b.addViolation(violationTypeNotFound(node.NamedType, node.Position))
	}
	return NamedType(node.NamedType)
}

func (b *builder) populateDirectiveDefinitions() {
	for _, doc := range b.docs {
		for _, node := range doc.Directives {
			if existing := b.schema.Directive(node.Name); existing != nil {
				if existing.BuiltIn && isBuiltinDirective(node.Name) {
					continue
				}
				b.addViolation(violationDirectiveAlreadyExists(node.Name, node.Position))
				continue
			}
			d := &Directive{
				Name:         node.Name,
				Description:  node.Description,
				IsRepeatable: node.IsRepeatable,
			}
			for _, loc := range node.Locations {
				d.Locations = append(d.Locations, string(loc))
			}
			for _, argNode := range node.Arguments {
				d.Arguments = append(d.Arguments, b.argument(argNode))
			}
			b.schema.Directives = append(b.schema.Directives, d)
		}
	}
}

func (b *builder) processSchemaDefinitions() {
	defined := false
	for _, doc := range b.docs {
		for _, schemaDef := range doc.Schema {
			if defined {
				b.addViolation(violationSchemaAlreadyDefined(schemaDef.Position))
				continue
			}
			defined = true
			b.schema.Description = schemaDef.Description
			b.schema.QueryType = ""
			b.applyOperationTypes(schemaDef.OperationTypes)
		}
	}
	for _, doc := range b.docs {
		for _, ext := range doc.SchemaExtension {
			b.applyOperationTypes(ext.OperationTypes)
		}
	}

	if !defined {
		// Conventional names apply when no schema definition is given.
		b.schema.QueryType = "Query"
		if b.schema.Lookup("Mutation") != nil {
			b.schema.MutationType = "Mutation"
		}
		if b.schema.Lookup("Subscription") != nil {
			b.schema.SubscriptionType = "Subscription"
		}
	}

	b.checkRootType("Query", b.schema.QueryType, defined)
	b.checkRootType("Mutation", b.schema.MutationType, true)
	b.checkRootType("Subscription", b.schema.SubscriptionType, true)
}

func (b *builder) applyOperationTypes(ops language.OperationTypeDefinitionList) {
	for _, opType := range ops {
		switch opType.Operation {
		case language.Query:
			b.schema.QueryType = opType.Type
		case language.Mutation:
			b.schema.MutationType = opType.Type
		case language.Subscription:
			b.schema.SubscriptionType = opType.Type
		}
	}
}

func (b *builder) checkRootType(operation, name string, required bool) {
	if name == "" {
		return
	}
	t := b.schema.Lookup(name)
	if t == nil {
		if required {
			b.addViolation(violationRootTypeNotFound(operation, name))
		}
		return
	}
	if t.Kind != TypeKindObject {
		b.addViolation(violationRootTypeNotObject(operation, name))
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
