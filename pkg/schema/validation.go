package schema

// Validate checks the structural invariants of a field subtree that the
// wire format cannot express on its own. Violations surface as
// configuration errors so the offending subtree can render an inline error
// instead of silently disappearing.
func (f *FieldSchema) Validate() error {
	if !f.Kind.Known() {
		return NewErrorf(ErrCodeConfiguration, "unknown field kind %q", f.Kind).
			WithField(f.Source)
	}

	if f.Kind.Container() && len(f.Fields) == 0 {
		return NewErrorf(ErrCodeConfiguration, "%s field requires a non-empty fields list", f.Kind).
			WithField(f.Source)
	}
	if !f.Kind.Container() && len(f.Fields) > 0 {
		return NewErrorf(ErrCodeConfiguration, "%s field cannot carry nested fields", f.Kind).
			WithField(f.Source)
	}

	// Layout wrappers are never repeated.
	if f.Kind == KindGrid && f.Multiple {
		return NewError(ErrCodeConfiguration, "grid field cannot be multiple").
			WithField(f.Source)
	}

	if f.Kind == KindModel && f.Model == "" {
		return NewError(ErrCodeConfiguration, "model field requires a model name").
			WithField(f.Source)
	}
	if f.Kind == KindReference && f.Reference == "" {
		return NewError(ErrCodeConfiguration, "reference field requires a target collection").
			WithField(f.Source)
	}

	if err := f.Condition.validate(f.Source); err != nil {
		return err
	}

	for i := range f.Fields {
		if err := f.Fields[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every field of the collection schema.
func (s *CollectionSchema) Validate() error {
	if s.Name == "" {
		return NewError(ErrCodeConfiguration, "collection schema requires a name")
	}
	for i := range s.Fields {
		if err := s.Fields[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Condition) validate(field string) error {
	if c == nil {
		return nil
	}
	for _, sub := range c.And {
		if err := sub.validate(field); err != nil {
			return err
		}
	}
	for _, sub := range c.Or {
		if err := sub.validate(field); err != nil {
			return err
		}
	}
	for _, leaf := range c.Leaves {
		if !leaf.Op.Known() {
			return NewErrorf(ErrCodeConfiguration, "unknown condition comparator %q", leaf.Op).
				WithField(field)
		}
	}
	return nil
}
