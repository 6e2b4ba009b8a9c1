package schema

// Clone returns a deep copy of s. Subsetting mutates the registry and the
// per-type collections, so each invocation works on its own copy.
func (s *Schema) Clone() *Schema {
	out := &Schema{
		QueryType:        s.QueryType,
		MutationType:     s.MutationType,
		SubscriptionType: s.SubscriptionType,
		Description:      s.Description,
		index:            make(map[string]*Type, len(s.types)),
	}
	for _, t := range s.types {
		out.AddType(t.clone())
	}
	for _, d := range s.Directives {
		out.Directives = append(out.Directives, d.clone())
	}
	return out
}

func (t *Type) clone() *Type {
	out := *t
	out.Fields = nil
	for _, f := range t.Fields {
		out.Fields = append(out.Fields, f.clone())
	}
	out.Interfaces = append([]string(nil), t.Interfaces...)
	out.PossibleTypes = append([]string(nil), t.PossibleTypes...)
	out.EnumValues = nil
	for _, v := range t.EnumValues {
		cp := *v
		out.EnumValues = append(out.EnumValues, &cp)
	}
	out.InputFields = cloneInputValues(t.InputFields)
	if t.SpecifiedByURL != nil {
		url := *t.SpecifiedByURL
		out.SpecifiedByURL = &url
	}
	return &out
}

func (f *Field) clone() *Field {
	out := *f
	out.Type = f.Type.clone()
	out.Arguments = cloneInputValues(f.Arguments)
	return &out
}

func (d *Directive) clone() *Directive {
	out := *d
	out.Locations = append([]string(nil), d.Locations...)
	out.Arguments = cloneInputValues(d.Arguments)
	return &out
}

func (t *TypeRef) clone() *TypeRef {
	if t == nil {
		return nil
	}
	return &TypeRef{Kind: t.Kind, Named: t.Named, OfType: t.OfType.clone()}
}

func cloneInputValues(in []*InputValue) []*InputValue {
	if in == nil {
		return nil
	}
	out := make([]*InputValue, 0, len(in))
	for _, v := range in {
		cp := *v
		cp.Type = v.Type.clone()
		out = append(out, &cp)
	}
	return out
}
