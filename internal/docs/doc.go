// Package docs parses the docs.json artifact published with every Elm
// package and answers export lookups against it.
//
// A docs.json file is an array of modules. Each module carries its own
// comment and four categories of exports:
//
//	[{"name": "List", "comment": "...",
//	  "values":  [{"name": "map", "type": "(a -> b) -> List a -> List b", "comment": "..."}],
//	  "unions":  [{"name": "Maybe", "args": ["a"], "cases": [["Just", ["a"]], ["Nothing", []]], "comment": "..."}],
//	  "aliases": [{"name": "Decoder", "args": ["a"], "type": "...", "comment": "..."}],
//	  "binops":  [{"name": "::", "type": "...", "associativity": "right", "precedence": 5, "comment": "..."}]}]
//
// Exports returns a listing with every comment stripped so it stays small
// enough to browse. ExportDoc returns a single export with its rendered type
// signature and verbatim comment.
package docs
