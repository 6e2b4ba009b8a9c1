// Package usage records which parts of a schema a set of documents touches.
//
// Object and interface types are tracked field by field: a selection of
// field f through a position of static type T marks the pair (T, f). A
// composite type reached as a field type or type condition is recorded with
// an empty field set. Every other kind (scalar, enum, union, input object) is
// tracked as a whole type.
package usage

import "sort"

// Usage is the outcome of collecting one or more documents.
type Usage struct {
	// Fields maps an object or interface type name to the selected field names.
	Fields map[string]map[string]struct{}
	// Other holds scalar, enum, union and input object names referenced anywhere.
	Other map[string]struct{}
}

func New() *Usage {
	return &Usage{
		Fields: make(map[string]map[string]struct{}),
		Other:  make(map[string]struct{}),
	}
}

// MarkField records that fieldName was selected on typeName.
func (u *Usage) MarkField(typeName, fieldName string) {
	fields, ok := u.Fields[typeName]
	if !ok {
		fields = make(map[string]struct{})
		u.Fields[typeName] = fields
	}
	fields[fieldName] = struct{}{}
}

// MarkComposite records that an object or interface type is reached, as a
// field's type or a fragment's type condition, without selecting a field.
func (u *Usage) MarkComposite(typeName string) {
	if _, ok := u.Fields[typeName]; !ok {
		u.Fields[typeName] = make(map[string]struct{})
	}
}

// MarkType records a non-composite type as referenced.
func (u *Usage) MarkType(name string) {
	u.Other[name] = struct{}{}
}

// HasType reports whether name was referenced in any way.
func (u *Usage) HasType(name string) bool {
	if _, ok := u.Fields[name]; ok {
		return true
	}
	_, ok := u.Other[name]
	return ok
}

// HasFields reports whether typeName was reached as a composite type, even if
// none of its fields were selected or the selected fields are later pruned.
func (u *Usage) HasFields(typeName string) bool {
	_, ok := u.Fields[typeName]
	return ok
}

// HasField reports whether fieldName was selected on typeName.
func (u *Usage) HasField(typeName, fieldName string) bool {
	_, ok := u.Fields[typeName][fieldName]
	return ok
}

// FieldNames returns the fields selected on typeName in lexical order.
func (u *Usage) FieldNames(typeName string) []string {
	names := make([]string, 0, len(u.Fields[typeName]))
	for name := range u.Fields[typeName] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeUsage lists the selected fields of one object or interface type.
type TypeUsage struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// Report is a stable, JSON-friendly view of a Usage.
type Report struct {
	Types []TypeUsage `json:"types"`
	Other []string    `json:"other"`
}

// Report returns the usage sorted by type name.
func (u *Usage) Report() Report {
	r := Report{Types: []TypeUsage{}, Other: []string{}}
	for name := range u.Fields {
		r.Types = append(r.Types, TypeUsage{Name: name, Fields: u.FieldNames(name)})
	}
	sort.Slice(r.Types, func(i, j int) bool { return r.Types[i].Name < r.Types[j].Name })
	for name := range u.Other {
		r.Other = append(r.Other, name)
	}
	sort.Strings(r.Other)
	return r
}
