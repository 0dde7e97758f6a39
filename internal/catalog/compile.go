package catalog

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileAlgorithm parses one catalog entry.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the entry struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`algorithm: bubble: { source: "bubble.lua" }`)
//	alg, err := CompileAlgorithm(v.LookupPath(cue.ParsePath("algorithm.bubble")))
//
// Exactly one of source (a file path relative to the catalog) and code
// (inline Lua) is required. elements, when set, must be positive.
func CompileAlgorithm(v cue.Value) (*Algorithm, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	alg := &Algorithm{}

	// Name comes from the struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		alg.Name = labels[len(labels)-1].String()
	}

	var err error
	if alg.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if alg.Source, err = optionalString(v, "source"); err != nil {
		return nil, err
	}
	if alg.Code, err = optionalString(v, "code"); err != nil {
		return nil, err
	}

	switch {
	case alg.Source == "" && alg.Code == "":
		return nil, &CompileError{
			Field:   "source",
			Message: "one of source or code is required",
			Pos:     v.Pos(),
		}
	case alg.Source != "" && alg.Code != "":
		return nil, &CompileError{
			Field:   "source",
			Message: "source and code are mutually exclusive",
			Pos:     v.Pos(),
		}
	}

	elementsVal := v.LookupPath(cue.ParsePath("elements"))
	if elementsVal.Exists() {
		n, err := elementsVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if n <= 0 {
			return nil, &CompileError{
				Field:   "elements",
				Message: fmt.Sprintf("elements must be positive, got %d", n),
				Pos:     elementsVal.Pos(),
			}
		}
		alg.Elements = int(n)
	}

	return alg, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a string", field),
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

// CompileError is a catalog entry that could not be compiled.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
