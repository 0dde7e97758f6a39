// Package catalog loads named sorting algorithms from CUE files.
//
// A catalog is a directory of .cue files in one package:
//
//	package algorithms
//
//	algorithm: selection: {
//		description: "Selection sort"
//		source:      "selection.lua"
//		elements:    24
//	}
//
// source is resolved relative to the catalog directory. An entry may instead
// carry its Lua inline in code.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Algorithm is one catalog entry.
type Algorithm struct {
	Name        string
	Description string
	Source      string // File path relative to Dir, or "" when Code is set
	Code        string // Inline Lua, or "" when Source is set
	Elements    int    // Suggested array size, 0 if unset
	Dir         string // Catalog directory the entry was loaded from
}

// ReadSource returns the algorithm's Lua source.
func (a Algorithm) ReadSource() (string, error) {
	if a.Code != "" {
		return a.Code, nil
	}
	path := a.Source
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.Dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source of %s: %w", a.Name, err)
	}
	return string(data), nil
}

// LoadMode controls how errors are handled during catalog loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the entries loaded from a directory, sorted by name.
type LoadResult struct {
	Algorithms []Algorithm
	FileCount  int // Number of CUE files found
}

// Find returns the entry with the given name.
func (r *LoadResult) Find(name string) (Algorithm, bool) {
	i, ok := slices.BinarySearchFunc(r.Algorithms, name, func(a Algorithm, name string) int {
		return strings.Compare(a.Name, name)
	})
	if !ok {
		return Algorithm{}, false
	}
	return r.Algorithms[i], true
}

// Names returns every entry name in sorted order.
func (r *LoadResult) Names() []string {
	names := make([]string, len(r.Algorithms))
	for i, a := range r.Algorithms {
		names[i] = a.Name
	}
	return names
}

// LoadError represents an error that occurred during catalog loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for catalog loading.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeNoAlgorithms = "E007" // Catalog defines nothing

	ErrCodeSource   = "E101" // Missing or conflicting source/code
	ErrCodeElements = "E102" // Invalid elements
	ErrCodeField    = "E103" // Field has the wrong type
)

// Load loads every algorithm entry in dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors; entries that compiled
// are still returned.
func Load(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}
	result := &LoadResult{FileCount: len(cueFiles)}

	algsVal := value.LookupPath(cue.ParsePath("algorithm"))
	if algsVal.Exists() {
		iter, iterErr := algsVal.Fields()
		if iterErr != nil {
			return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating algorithms: %v", iterErr)}}
		}
		for iter.Next() {
			alg, compileErr := CompileAlgorithm(iter.Value())
			if compileErr != nil {
				errs = append(errs, convertCompileError(compileErr, "algorithm."+iter.Label()))
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			alg.Dir = absDir
			result.Algorithms = append(result.Algorithms, *alg)
		}
	}

	slices.SortFunc(result.Algorithms, func(a, b Algorithm) int {
		return strings.Compare(a.Name, b.Name)
	})

	if len(result.Algorithms) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoAlgorithms, Message: "no algorithms found in catalog"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compile error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Code:    fieldErrorCode(ce.Field),
			Message: fmt.Sprintf("%s: %s", context, ce.Message),
			Pos:     ce.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

func fieldErrorCode(field string) string {
	switch field {
	case "source":
		return ErrCodeSource
	case "elements":
		return ErrCodeElements
	case "description", "code":
		return ErrCodeField
	default:
		return ErrCodeGeneric
	}
}
