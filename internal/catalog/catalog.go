// Package catalog provides the read-only table of scan techniques. The
// built-in table is embedded in the binary; an external YAML file with the
// same layout can replace it.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/scenario"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Source is the lookup surface consumed by the controller and the API.
type Source interface {
	Definition(id scenario.ScanType) (*scenario.ScanDefinition, error)
	Scenario(id scenario.ScanType, state scenario.PortState) (scenario.Scenario, scenario.PortState, error)
	List() []*scenario.ScanDefinition
}

// Catalog is an immutable set of scan definitions in display order.
type Catalog struct {
	defs  map[scenario.ScanType]*scenario.ScanDefinition
	order []scenario.ScanType
}

type document struct {
	Scans []*scenario.ScanDefinition `yaml:"scans"`
}

// Builtin returns the embedded catalog.
func Builtin() (*Catalog, error) {
	return Parse(builtinYAML)
}

// MustBuiltin is like Builtin but panics on a malformed embedded table.
func MustBuiltin() *Catalog {
	c, err := Builtin()
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded table is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path selects the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to read catalog file %s", path), err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WrapPlaybackError(errors.CodeInvalidScenario, "failed to parse catalog", err)
	}
	if len(doc.Scans) == 0 {
		return nil, errors.ErrInvalidScenario("catalog has no scan definitions")
	}

	c := &Catalog{
		defs:  make(map[scenario.ScanType]*scenario.ScanDefinition, len(doc.Scans)),
		order: make([]scenario.ScanType, 0, len(doc.Scans)),
	}
	for _, def := range doc.Scans {
		if def == nil {
			return nil, errors.ErrInvalidScenario("empty scan definition")
		}
		def.ID = scenario.ParseScanType(string(def.ID))
		def.Normalize()
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.defs[def.ID]; dup {
			e := errors.ErrInvalidScenario("duplicate scan definition")
			e.ScanType = string(def.ID)
			return nil, e
		}
		c.defs[def.ID] = def
		c.order = append(c.order, def.ID)
	}
	return c, nil
}

// Definition returns the definition for id.
func (c *Catalog) Definition(id scenario.ScanType) (*scenario.ScanDefinition, error) {
	def, ok := c.defs[id]
	if !ok {
		return nil, errors.ErrUnknownScanType(string(id))
	}
	return def, nil
}

// Scenario returns the scenario for (id, state). An unknown state falls back
// to scenario.DefaultPortState; the returned PortState is the one resolved.
func (c *Catalog) Scenario(id scenario.ScanType, state scenario.PortState) (scenario.Scenario, scenario.PortState, error) {
	def, err := c.Definition(id)
	if err != nil {
		return scenario.Scenario{}, "", err
	}
	s, resolved, ok := def.Scenario(state)
	if !ok {
		e := errors.ErrInvalidScenario(fmt.Sprintf("no %s scenario", resolved))
		e.ScanType = string(id)
		return scenario.Scenario{}, "", e
	}
	return s, resolved, nil
}

// List returns every definition in display order.
func (c *Catalog) List() []*scenario.ScanDefinition {
	out := make([]*scenario.ScanDefinition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id])
	}
	return out
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id scenario.ScanType) bool {
	_, ok := c.defs[id]
	return ok
}

// IDs returns the scan type identifiers in display order.
func (c *Catalog) IDs() []scenario.ScanType {
	return append([]scenario.ScanType(nil), c.order...)
}
