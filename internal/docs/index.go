package docs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModuleNotFound is returned when the package does not expose the module
	ErrModuleNotFound = errors.New("module not found")
	// ErrExportNotFound is returned when no export category contains the name
	ErrExportNotFound = errors.New("export not found")
	// ErrDuplicateModule is returned when a docs.json lists a module twice
	ErrDuplicateModule = errors.New("duplicate module")
)

// Index is the parsed documentation of one package version.
// It is never mutated after Parse returns.
type Index struct {
	modules []Module
	byName  map[string]int
}

func newIndex(modules []Module) (*Index, error) {
	idx := &Index{
		modules: modules,
		byName:  make(map[string]int, len(modules)),
	}
	for i, m := range modules {
		if _, dup := idx.byName[m.Name]; dup {
			return nil, fmt.Errorf("%w: %w %s", ErrDocsParse, ErrDuplicateModule, m.Name)
		}
		idx.byName[m.Name] = i
	}
	return idx, nil
}

// Len returns the number of modules
func (idx *Index) Len() int {
	return len(idx.modules)
}

// ModuleNames returns module names in declared order
func (idx *Index) ModuleNames() []string {
	names := make([]string, len(idx.modules))
	for i, m := range idx.modules {
		names[i] = m.Name
	}
	return names
}

// Module returns the named module
func (idx *Index) Module(name string) (Module, error) {
	i, ok := idx.byName[name]
	if !ok {
		return Module{}, fmt.Errorf("%w: %s (available: %s)", ErrModuleNotFound, name, strings.Join(idx.ModuleNames(), ", "))
	}
	return idx.modules[i], nil
}

// Exports returns the comment-free listing. An empty module name selects
// every module in declared order; otherwise exactly the named module.
func (idx *Index) Exports(module string) (*Listing, error) {
	if module == "" {
		listing := &Listing{Modules: make([]ModuleExports, 0, len(idx.modules))}
		for _, m := range idx.modules {
			listing.Modules = append(listing.Modules, stripModule(m))
		}
		return listing, nil
	}

	m, err := idx.Module(module)
	if err != nil {
		return nil, err
	}
	return &Listing{Modules: []ModuleExports{stripModule(m)}}, nil
}

// ExportDoc looks up one export, searching values, unions, aliases and
// binops in that order. The first match wins.
func (idx *Index) ExportDoc(module, exportName string) (*Export, error) {
	m, err := idx.Module(module)
	if err != nil {
		return nil, err
	}

	for _, v := range m.Values {
		if v.Name == exportName {
			return newExport(m.Name, v.Name, CategoryValue, v.Signature(), v.Comment), nil
		}
	}
	for _, u := range m.Unions {
		if u.Name == exportName {
			return newExport(m.Name, u.Name, CategoryUnion, u.Signature(), u.Comment), nil
		}
	}
	for _, a := range m.Aliases {
		if a.Name == exportName {
			return newExport(m.Name, a.Name, CategoryAlias, a.Signature(), a.Comment), nil
		}
	}
	for _, b := range m.Binops {
		if b.Name == exportName {
			return newExport(m.Name, b.Name, CategoryBinop, b.Signature(), b.Comment), nil
		}
	}

	return nil, fmt.Errorf("%w: %s.%s", ErrExportNotFound, module, exportName)
}

func newExport(module, name string, category Category, signature, comment string) *Export {
	return &Export{
		Module:        module,
		ExportName:    name,
		Category:      category,
		TypeSignature: signature,
		Comment:       comment,
	}
}

func stripModule(m Module) ModuleExports {
	out := ModuleExports{
		Name:    m.Name,
		Values:  make([]ValueExport, 0, len(m.Values)),
		Unions:  make([]UnionExport, 0, len(m.Unions)),
		Aliases: make([]AliasExport, 0, len(m.Aliases)),
		Binops:  make([]BinopExport, 0, len(m.Binops)),
	}
	for _, v := range m.Values {
		out.Values = append(out.Values, ValueExport{Name: v.Name, Type: v.Type})
	}
	for _, u := range m.Unions {
		out.Unions = append(out.Unions, UnionExport{Name: u.Name, Args: u.Args, Cases: u.Cases})
	}
	for _, a := range m.Aliases {
		out.Aliases = append(out.Aliases, AliasExport{Name: a.Name, Args: a.Args, Type: a.Type})
	}
	for _, b := range m.Binops {
		out.Binops = append(out.Binops, BinopExport{
			Name:          b.Name,
			Type:          b.Type,
			Associativity: b.Associativity,
			Precedence:    b.Precedence,
		})
	}
	return out
}
