package docs

import (
	"strings"
)

// Category names the four kinds of exported items in a module
type Category string

const (
	CategoryValue Category = "value"
	CategoryUnion Category = "union"
	CategoryAlias Category = "alias"
	CategoryBinop Category = "binop"
)

// Module is one exposed module of a package
type Module struct {
	Name    string
	Comment string
	Values  []Value
	Unions  []Union
	Aliases []Alias
	Binops  []Binop
}

// Value is an exported function or constant
type Value struct {
	Name    string
	Type    string
	Comment string
}

// Signature renders "name : type"
func (v Value) Signature() string {
	return v.Name + " : " + v.Type
}

// UnionCase is a single constructor of a custom type
type UnionCase struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

// Union is an exported custom type
type Union struct {
	Name    string
	Args    []string
	Cases   []UnionCase
	Comment string
}

// Signature renders "type Name a = A a | B"; opaque types render without cases
func (u Union) Signature() string {
	var b strings.Builder
	b.WriteString("type ")
	b.WriteString(typeHead(u.Name, u.Args))
	for i, c := range u.Cases {
		if i == 0 {
			b.WriteString(" = ")
		} else {
			b.WriteString(" | ")
		}
		b.WriteString(c.Name)
		for _, arg := range c.Args {
			b.WriteString(" ")
			b.WriteString(parenthesize(arg))
		}
	}
	return b.String()
}

// Alias is an exported type alias
type Alias struct {
	Name    string
	Args    []string
	Type    string
	Comment string
}

// Signature renders "type alias Name a = type"
func (a Alias) Signature() string {
	return "type alias " + typeHead(a.Name, a.Args) + " = " + a.Type
}

// Binop is an exported infix operator
type Binop struct {
	Name          string
	Type          string
	Associativity string
	Precedence    int
	Comment       string
}

// Signature renders "(op) : type"
func (b Binop) Signature() string {
	return "(" + b.Name + ") : " + b.Type
}

func typeHead(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// parenthesize wraps multi-word type arguments so constructors read unambiguously
func parenthesize(arg string) string {
	if !strings.Contains(arg, " ") {
		return arg
	}
	if strings.HasPrefix(arg, "(") || strings.HasPrefix(arg, "{") {
		return arg
	}
	return "(" + arg + ")"
}

// Export is the full per-symbol view returned by ExportDoc
type Export struct {
	Module        string   `json:"module"`
	ExportName    string   `json:"export_name"`
	Category      Category `json:"category"`
	TypeSignature string   `json:"type_signature"`
	Comment       string   `json:"comment"`
}

// Listing is the comment-free projection returned by Exports
type Listing struct {
	Modules []ModuleExports `json:"modules"`
}

// ModuleExports lists the exports of one module without any prose
type ModuleExports struct {
	Name    string        `json:"name"`
	Values  []ValueExport `json:"values"`
	Unions  []UnionExport `json:"unions"`
	Aliases []AliasExport `json:"aliases"`
	Binops  []BinopExport `json:"binops"`
}

// ValueExport is a value without its comment
type ValueExport struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// UnionExport is a custom type without its comment
type UnionExport struct {
	Name  string      `json:"name"`
	Args  []string    `json:"args"`
	Cases []UnionCase `json:"cases"`
}

// AliasExport is a type alias without its comment
type AliasExport struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
	Type string   `json:"type"`
}

// BinopExport is an operator without its comment
type BinopExport struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Associativity string `json:"associativity"`
	Precedence    int    `json:"precedence"`
}
