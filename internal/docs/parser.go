package docs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDocsParse is returned when a docs.json artifact is malformed
var ErrDocsParse = errors.New("failed to parse docs.json")

// docText decodes a comment that may be a string or, in some published
// artifacts, an empty array.
type docText string

func (d *docText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*d = ""
		return nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*d = docText(s)
		return nil
	case trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		if len(items) != 0 {
			return fmt.Errorf("comment array must be empty, got %d items", len(items))
		}
		*d = ""
		return nil
	default:
		return fmt.Errorf("comment must be a string, got %s", trimmed)
	}
}

// rawCase decodes a union constructor, published as [name, [typeArgs...]]
type rawCase UnionCase

func (c *rawCase) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("union case must be an array: %w", err)
	}
	if len(parts) == 0 || len(parts) > 2 {
		return fmt.Errorf("union case must be [name, [args]], got %d elements", len(parts))
	}

	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return fmt.Errorf("union case name must be a string: %w", err)
	}

	args := []string{}
	if len(parts) == 2 {
		if err := json.Unmarshal(parts[1], &args); err != nil {
			return fmt.Errorf("union case %s: arguments must be strings: %w", name, err)
		}
		if args == nil {
			args = []string{}
		}
	}

	*c = rawCase{Name: name, Args: args}
	return nil
}

type rawModule struct {
	Name    *string    `json:"name"`
	Comment docText    `json:"comment"`
	Values  []rawValue `json:"values"`
	Unions  []rawUnion `json:"unions"`
	Aliases []rawAlias `json:"aliases"`
	Binops  []rawBinop `json:"binops"`
}

type rawValue struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Comment docText `json:"comment"`
}

type rawUnion struct {
	Name    string    `json:"name"`
	Args    []string  `json:"args"`
	Cases   []rawCase `json:"cases"`
	Comment docText   `json:"comment"`
}

type rawAlias struct {
	Name    string   `json:"name"`
	Args    []string `json:"args"`
	Type    string   `json:"type"`
	Comment docText  `json:"comment"`
}

type rawBinop struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Associativity string  `json:"associativity"`
	Precedence    int     `json:"precedence"`
	Comment       docText `json:"comment"`
}

// Parse decodes a docs.json artifact into an immutable Index
func Parse(data []byte) (*Index, error) {
	var raw []rawModule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocsParse, err)
	}

	modules := make([]Module, 0, len(raw))
	for i, rm := range raw {
		if rm.Name == nil || *rm.Name == "" {
			return nil, fmt.Errorf("%w: module %d has no name", ErrDocsParse, i)
		}
		m, err := convertModule(rm)
		if err != nil {
			return nil, fmt.Errorf("%w: module %s: %v", ErrDocsParse, *rm.Name, err)
		}
		modules = append(modules, m)
	}

	return newIndex(modules)
}

func convertModule(rm rawModule) (Module, error) {
	m := Module{
		Name:    *rm.Name,
		Comment: string(rm.Comment),
		Values:  make([]Value, 0, len(rm.Values)),
		Unions:  make([]Union, 0, len(rm.Unions)),
		Aliases: make([]Alias, 0, len(rm.Aliases)),
		Binops:  make([]Binop, 0, len(rm.Binops)),
	}

	for _, v := range rm.Values {
		if v.Name == "" {
			return Module{}, errors.New("value without a name")
		}
		m.Values = append(m.Values, Value{Name: v.Name, Type: v.Type, Comment: string(v.Comment)})
	}
	for _, u := range rm.Unions {
		if u.Name == "" {
			return Module{}, errors.New("union without a name")
		}
		cases := make([]UnionCase, len(u.Cases))
		for i, c := range u.Cases {
			cases[i] = UnionCase(c)
		}
		m.Unions = append(m.Unions, Union{Name: u.Name, Args: nonNil(u.Args), Cases: cases, Comment: string(u.Comment)})
	}
	for _, a := range rm.Aliases {
		if a.Name == "" {
			return Module{}, errors.New("alias without a name")
		}
		m.Aliases = append(m.Aliases, Alias{Name: a.Name, Args: nonNil(a.Args), Type: a.Type, Comment: string(a.Comment)})
	}
	for _, b := range rm.Binops {
		if b.Name == "" {
			return Module{}, errors.New("binop without a name")
		}
		m.Binops = append(m.Binops, Binop{
			Name:          b.Name,
			Type:          b.Type,
			Associativity: b.Associativity,
			Precedence:    b.Precedence,
			Comment:       string(b.Comment),
		})
	}

	return m, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
