// Package mcp serves the Elm package catalog over the Model Context
// Protocol: JSON-RPC 2.0, one message per line on stdin and stdout.
//
// The dispatcher answers a closed set of methods:
//
//	initialize, ping, roots/list, logging/setLevel
//	tools/list, tools/call
//	resources/list, resources/read
//	prompts/list, prompts/get
//
// Messages without an id are notifications and get no response.
//
// # Tools
//
//   - list_installed_packages: packages from elm.json with exact versions
//   - get_elm_package_readme: README of one package version
//   - get_elm_package_exports: modules and signatures, without doc comments
//   - get_elm_package_export_docs: full comment of one export
//   - search_packages: registry search by name and summary
//
// Tool arguments are checked against the declared input schema before a
// handler runs. Tool results are a single text content item holding
// indented JSON, except the README tool which returns the README text.
//
//	Request:
//	{"jsonrpc":"2.0","id":3,"method":"tools/call",
//	 "params":{"name":"get_elm_package_export_docs",
//	           "arguments":{"author":"elm","name":"core","version":"1.0.5",
//	                        "module":"List","export_name":"map"}}}
//
//	Response text:
//	{
//	  "author": "elm",
//	  "name": "core",
//	  "version": "1.0.5",
//	  "module": "List",
//	  "export_name": "map",
//	  "category": "value",
//	  "type_signature": "map : (a -> b) -> List.List a -> List.List b",
//	  "comment": "..."
//	}
//
// # Errors
//
// Every failure becomes one JSON-RPC error object. Sentinel errors from the
// lower packages are mapped with errors.Is to stable codes:
//
//	-32700 parse error            -32001 manifest not found
//	-32600 invalid request        -32002 resource not found
//	-32601 method not found       -32003 package docs not found
//	-32602 invalid params         -32004 module not found
//	-32603 internal error         -32005 export not found
//	                              -32006 README not found
//	                              -32007 prompt not found
//	                              -32008 unknown tool
//	                              -32009 missing prompt argument
//	                              -32010 elm.json or docs.json parse failure
//	                              -32011 elm.json schema error
//	                              -32012 registry unavailable
//
// Invalid parameters carry {"param", "reason"} in the error data.
//
// Logs go to stderr; stdout carries only protocol messages.
package mcp
