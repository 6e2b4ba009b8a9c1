package subset

import (
	"fmt"

	"github.com/alecthomas/errors"
)

// ErrStructuralInvariant is matched by every error raised because the pruned
// schema would be structurally invalid.
var ErrStructuralInvariant = errors.New("structural invariant violated")

// PreconditionError is returned before any analysis when the input cannot be
// subset at all.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

// UnionError reports a union whose members were all pruned.
type UnionError struct {
	Union string
}

func (e *UnionError) Error() string {
	return fmt.Sprintf("documents reference union %q but none of its member types", e.Union)
}

func (e *UnionError) Unwrap() error { return ErrStructuralInvariant }

// MissingRootError reports that the root query type did not survive pruning.
type MissingRootError struct {
	Type string
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("root query type %q was pruned: documents must reference at least one query field", e.Type)
}

func (e *MissingRootError) Unwrap() error { return ErrStructuralInvariant }

var errNoDocuments = &PreconditionError{
	Reason: "subsetting requires at least one operation document",
}
