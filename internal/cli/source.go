package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/soralvi/internal/catalog"
)

// algorithmSource is a resolved algorithm ready to record.
type algorithmSource struct {
	Name     string
	Code     string
	Elements int // Suggested size from the catalog, 0 if none
}

// resolveAlgorithm reads arg as a .lua file, or, when catalogDir is set, as
// the name of a catalog entry.
func resolveAlgorithm(arg, catalogDir string) (algorithmSource, error) {
	if catalogDir == "" {
		data, err := os.ReadFile(arg)
		if err != nil {
			return algorithmSource{}, fmt.Errorf("read algorithm: %w", err)
		}
		name := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		return algorithmSource{Name: name, Code: string(data)}, nil
	}

	result, errs := catalog.Load(catalogDir, catalog.LoadModeFailFast)
	if len(errs) > 0 {
		return algorithmSource{}, fmt.Errorf("load catalog: %w", errs[0])
	}
	alg, ok := result.Find(arg)
	if !ok {
		return algorithmSource{}, fmt.Errorf("algorithm %q not found in catalog (have %s)",
			arg, strings.Join(result.Names(), ", "))
	}
	code, err := alg.ReadSource()
	if err != nil {
		return algorithmSource{}, err
	}
	return algorithmSource{Name: alg.Name, Code: code, Elements: alg.Elements}, nil
}
