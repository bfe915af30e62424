package store

import "errors"

// ErrTemplateNotFound is returned when a template is absent, inactive, or
// belongs to a different guild than the caller claims. Premium lookups have no
// counterpart: an absent grant simply means not-premium, never an error.
var ErrTemplateNotFound = errors.New("template not found or inaccessible")
