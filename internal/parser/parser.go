// Package parser provides tree-sitter-based parsing of C# sources and
// extracts a declared-type outline: usings, types, their bases, and their
// methods.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// FunctionDef represents a method, constructor, or local function.
type FunctionDef struct {
	Name      string
	StartLine int
	EndLine   int
}

// TypeDef represents a declared class, struct, interface, enum, or record.
type TypeDef struct {
	Kind      string
	Name      string
	Namespace string
	Bases     []string
	StartLine int
	EndLine   int
	Methods   []FunctionDef
}

// langInfo holds tree-sitter language metadata including which node types
// represent types, functions, and imports for a given language.
type langInfo struct {
	lang           *sitter.Language
	typeNodeTypes  map[string]string
	funcNodeTypes  []string
	importNodeType []string
	nsNodeTypes    []string
}

var csharpInfo = langInfo{
	lang: csharp.GetLanguage(),
	typeNodeTypes: map[string]string{
		"class_declaration":     "class",
		"struct_declaration":    "struct",
		"interface_declaration": "interface",
		"enum_declaration":      "enum",
		"record_declaration":    "record",
	},
	funcNodeTypes:  []string{"method_declaration", "constructor_declaration", "local_function_statement"},
	importNodeType: []string{"using_directive"},
	nsNodeTypes:    []string{"namespace_declaration", "file_scoped_namespace_declaration"},
}

// registry maps file extensions to language info for auto-detection.
var registry = map[string]langInfo{
	".cs": csharpInfo,
}

// Supported reports whether filename has a parseable extension.
func Supported(filename string) bool {
	_, ok := registry[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Parser wraps tree-sitter to parse source files with automatic language detection.
type Parser struct {
	inner *sitter.Parser
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{
		inner: sitter.NewParser(),
	}
}

// Parse parses source code from the given filename, auto-detecting the language
// from the file extension. Returns an error for unsupported extensions.
func (p *Parser) Parse(filename string, source []byte) (*Tree, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	info, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension %q: language not in registry", ext)
	}

	p.inner.SetLanguage(info.lang)
	sitterTree, err := p.inner.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	return &Tree{
		tree:   sitterTree,
		source: source,
		info:   info,
	}, nil
}

// Tree wraps a parsed tree-sitter syntax tree with convenience methods
// for extracting types, functions, and usings.
type Tree struct {
	tree   *sitter.Tree
	source []byte
	info   langInfo
}

// RootNode returns the root node of the parsed syntax tree.
func (t *Tree) RootNode() *sitter.Node {
	return t.tree.RootNode()
}

// HasErrors reports whether tree-sitter had to recover from syntax errors.
func (t *Tree) HasErrors() bool {
	return t.RootNode().HasError()
}

// Close releases the underlying syntax tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// Functions extracts all function and method definitions from the syntax tree.
func (t *Tree) Functions() []FunctionDef {
	var funcs []FunctionDef
	funcTypes := toSet(t.info.funcNodeTypes)

	walk(t.RootNode(), func(node *sitter.Node) {
		if !funcTypes[node.Type()] {
			return
		}
		if fd, ok := t.funcDef(node); ok {
			funcs = append(funcs, fd)
		}
	})

	return funcs
}

// Imports extracts the namespaces named by using directives.
func (t *Tree) Imports() []string {
	var imports []string
	importTypes := toSet(t.info.importNodeType)

	walk(t.RootNode(), func(node *sitter.Node) {
		if !importTypes[node.Type()] {
			return
		}
		if ns := extractUsing(node.Content(t.source)); ns != "" {
			imports = append(imports, ns)
		}
	})

	return imports
}

// Types extracts declared types in source order. Each method is attached to
// its innermost enclosing type; nested types are listed separately.
func (t *Tree) Types() []TypeDef {
	var types []TypeDef
	t.collectTypes(t.RootNode(), "", -1, &types)
	return types
}

func (t *Tree) collectTypes(node *sitter.Node, namespace string, owner int, types *[]TypeDef) {
	if node == nil {
		return
	}
	funcTypes := toSet(t.info.funcNodeTypes)
	nsTypes := toSet(t.info.nsNodeTypes)

	switch {
	case nsTypes[node.Type()]:
		if name := node.ChildByFieldName("name"); name != nil {
			ns := name.Content(t.source)
			if namespace != "" {
				ns = namespace + "." + ns
			}
			namespace = ns
		}
	case t.info.typeNodeTypes[node.Type()] != "":
		if name := node.ChildByFieldName("name"); name != nil {
			*types = append(*types, TypeDef{
				Kind:      t.info.typeNodeTypes[node.Type()],
				Name:      name.Content(t.source),
				Namespace: namespace,
				Bases:     t.bases(node),
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
			})
			owner = len(*types) - 1
		}
	case funcTypes[node.Type()]:
		if owner >= 0 {
			if fd, ok := t.funcDef(node); ok {
				(*types)[owner].Methods = append((*types)[owner].Methods, fd)
			}
		}
		// Local functions inside a body belong to the method, not the type.
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		t.collectTypes(node.Child(i), namespace, owner, types)
	}
}

func (t *Tree) funcDef(node *sitter.Node) (FunctionDef, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return FunctionDef{}, false
	}
	return FunctionDef{
		Name:      nameNode.Content(t.source),
		StartLine: int(node.StartPoint().Row) + 1, // 0-indexed to 1-indexed
		EndLine:   int(node.EndPoint().Row) + 1,
	}, true
}

// bases returns the entries of a type's base list (": MonoBehaviour, IFoo").
func (t *Tree) bases(node *sitter.Node) []string {
	var out []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "base_list" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if b := strings.TrimSpace(child.NamedChild(j).Content(t.source)); b != "" {
				out = append(out, b)
			}
		}
	}
	return out
}

// walk performs a depth-first traversal of the syntax tree, calling fn for each node.
func walk(node *sitter.Node, fn func(*sitter.Node)) {
	if node == nil {
		return
	}
	fn(node)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil {
			walk(child, fn)
		}
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

// extractUsing cleans a using directive down to the namespace it names.
// "using static UnityEngine.Mathf;" gives "UnityEngine.Mathf" and an alias
// such as "using Vec = UnityEngine.Vector3;" gives "UnityEngine.Vector3".
func extractUsing(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "global ")
	text = strings.TrimPrefix(text, "using")
	text = strings.TrimSuffix(strings.TrimSpace(text), ";")
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "static ")
	if _, target, ok := strings.Cut(text, "="); ok {
		text = target
	}
	return strings.TrimSpace(text)
}
