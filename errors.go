package nftnl

import (
	"errors"
	"fmt"

	"github.com/scitags/nftnl/schema"
)

var (
	ErrMissingChainInfo = errors.New("chain has no name or table")
	ErrMissingTableInfo = errors.New("table has no name")
	ErrMissingSetInfo   = errors.New("set has no name or table")

	ErrBatchEmpty     = errors.New("nftnl: batch is empty")
	ErrBatchFinalized = errors.New("nftnl: batch already finalized")
)

// BuilderError reports an object used before the fields it depends on were
// set.
type BuilderError struct {
	Object string
	Err    error
}

func (e *BuilderError) Error() string {
	return fmt.Sprintf("nftnl: couldn't build %s: %v", e.Object, e.Err)
}

func (e *BuilderError) Unwrap() error {
	return e.Err
}

// named reports whether a name is both present and non empty.
func named(o schema.Optional[string]) bool {
	return o.Valid && o.Value != ""
}
