// Package types holds the registries built once per program before
// transformation: function signatures and structure field layouts,
// including the flattened (dotted-path) view of nested records.
package types

import (
	"fmt"
	"sort"

	"github.com/nilang-go/nilangc/ast"
	"github.com/nilang-go/nilangc/compileerr"
	"github.com/nilang-go/nilangc/token"
)

// FunctionSignature is a function's return type and ordered parameter
// list.
type FunctionSignature struct {
	ReturnType ast.Type
	Parameters []ast.Parameter
}

// FunctionsRef maps function name to signature. It is pre-populated with
// the three externally-linked runtime builtins.
type FunctionsRef struct {
	functions map[string]FunctionSignature
}

// NewFunctionsRef returns a registry seeded with printi/printc/print.
func NewFunctionsRef() *FunctionsRef {
	r := &FunctionsRef{functions: make(map[string]FunctionSignature)}
	r.functions["printi"] = FunctionSignature{
		ReturnType: ast.Type{Kind: ast.TypeVoid},
		Parameters: []ast.Parameter{{Name: "value", Type: ast.Type{Kind: ast.TypeInt}}},
	}
	r.functions["printc"] = FunctionSignature{
		ReturnType: ast.Type{Kind: ast.TypeVoid},
		Parameters: []ast.Parameter{{Name: "value", Type: ast.Type{Kind: ast.TypeChar}}},
	}
	r.functions["print"] = FunctionSignature{
		ReturnType: ast.Type{Kind: ast.TypeVoid},
		Parameters: []ast.Parameter{{Name: "value", Type: ast.Type{Kind: ast.TypeString}}},
	}
	return r
}

// Declare registers a user-defined function, replacing any existing entry
// of the same name, builtins included. Duplicate names are not rejected
// here, and the parser does not reject them either: it keeps the last
// declaration of a name.
func (r *FunctionsRef) Declare(name string, sig FunctionSignature) {
	r.functions[name] = sig
}

// Lookup returns the signature for name, if declared.
func (r *FunctionsRef) Lookup(name string) (FunctionSignature, bool) {
	sig, ok := r.functions[name]
	return sig, ok
}

// StructuresRef stores each structure's declaration: the nested
// field→type map and the declaration order of its fields. The
// recursively flattened field-path→scalar-type view is computed on each
// call to Flattened.
type StructuresRef struct {
	decls map[string]*ast.StructureDeclaration
}

// NewStructuresRef returns an empty registry.
func NewStructuresRef() *StructuresRef {
	return &StructuresRef{decls: make(map[string]*ast.StructureDeclaration)}
}

// Declare registers a structure declaration.
func (r *StructuresRef) Declare(decl *ast.StructureDeclaration) {
	r.decls[decl.Name] = decl
}

// Lookup returns the raw declaration for a structure name.
func (r *StructuresRef) Lookup(name string) (*ast.StructureDeclaration, bool) {
	decl, ok := r.decls[name]
	return decl, ok
}

// Fields returns the field names (in declaration order) and their
// (possibly Object-valued) types for structName.
func (r *StructuresRef) Fields(structName string) ([]string, map[string]ast.Type, bool) {
	decl, ok := r.decls[structName]
	if !ok {
		return nil, nil, false
	}
	return decl.Fields, decl.FieldTypes, true
}

// Flattened returns the recursively-flattened scalar view of structName:
// every leaf field, named by its dotted path from the root, paired with
// its scalar type, plus the paths in sorted order (the order the
// transformer must declare/copy them in).
func (r *StructuresRef) Flattened(structName string, loc token.Location, source, file string) (map[string]ast.Type, []string, *compileerr.CompilerError) {
	flat := make(map[string]ast.Type)
	if err := r.flattenInto(structName, "", flat, loc, source, file); err != nil {
		return nil, nil, err
	}

	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return flat, paths, nil
}

func (r *StructuresRef) flattenInto(structName, prefix string, out map[string]ast.Type, loc token.Location, source, file string) *compileerr.CompilerError {
	decl, ok := r.decls[structName]
	if !ok {
		return compileerr.New(compileerr.TypeNotFound, fmt.Sprintf("unknown structure type '%s'", structName), loc, source, file)
	}

	for _, name := range decl.Fields {
		fieldType := decl.FieldTypes[name]
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		if fieldType.Kind == ast.TypeObject {
			if err := r.flattenInto(fieldType.Name, path, out, loc, source, file); err != nil {
				return err
			}
			continue
		}

		out[path] = fieldType
	}

	return nil
}

// FieldCount returns the number of top-level fields for structName.
func (r *StructuresRef) FieldCount(structName string) (int, bool) {
	decl, ok := r.decls[structName]
	if !ok {
		return 0, false
	}
	return len(decl.Fields), true
}
