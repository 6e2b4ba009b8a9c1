package schema

import (
	"fmt"

	language "github.com/hanpama/schemasubset/internal/language"
)

type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationError aggregates every problem found while building a schema.
type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" {
			line += fmt.Sprintf(" %s:%d:%d", v.File, v.Line, v.Column)
		}
		msg += line + "\n"
	}
	return msg
}

func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos == nil {
		return v
	}
	if pos.Src != nil {
		v.File = pos.Src.Name
	}
	v.Line = pos.Line
	v.Column = pos.Column
	return v
}

// NOTE: Keep messages stable; tests match on them.

func violationDefinitionAlreadyExists(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Definition %q already exists", name), pos)
}

func violationDefinitionNotFoundForExtension(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Cannot extend %q: definition not found", name), pos)
}

func violationUnexpectedTypeForExtension(node *language.Definition, expected string) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Cannot extend %q with %s extension: kind mismatch", node.Name, expected),
		node.Position,
	)
}

func violationDuplicateField(kind, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate field %q found in %s %q", fieldName, kind, typeName),
		pos,
	)
}

func violationDuplicateEnumValue(valueName, enumName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate enum value %q found in enum %q", valueName, enumName),
		pos,
	)
}

func violationDuplicateMember(member, unionName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate member %q found in union %q", member, unionName),
		pos,
	)
}

func violationTypeNotFound(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Type %q not found in definitions", typeName), pos)
}

func violationSchemaAlreadyDefined(pos *language.Position) *Violation {
	return violationWithPosition("Schema definition already exists", pos)
}

func violationRootTypeNotFound(operation, typeName string) *Violation {
	return &Violation{Message: fmt.Sprintf("%s root type %q not found", operation, typeName)}
}

func violationRootTypeNotObject(operation, typeName string) *Violation {
	return &Violation{Message: fmt.Sprintf("%s root type %q must be an object type", operation, typeName)}
}

func violationDirectiveAlreadyExists(name string, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Directive @%s already exists", name), pos)
}
