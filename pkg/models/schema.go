// Package models holds the data types shared between the generator, the
// CLI and the MCP server.
package models

// Reserved schema keys.
const (
	// KeyTypeName names the Go type generated for a mapping.
	KeyTypeName = "__name__"
	// KeyPackage marks a mapping as an external type from the given import path.
	KeyPackage = "__package__"
)

// ObjectSchema is a decoded object description. Values are bool, string,
// json.Number or nested ObjectSchema values (as map[string]any).
type ObjectSchema map[string]any

// SchemaFormat selects the decoder for an object description.
type SchemaFormat string

const (
	FormatAuto SchemaFormat = ""
	FormatJSON SchemaFormat = "json"
	FormatYAML SchemaFormat = "yaml"
)

// PropertyKind classifies a property by the kind of value it holds.
type PropertyKind string

const (
	KindBool     PropertyKind = "bool"
	KindInt      PropertyKind = "int64"
	KindFloat    PropertyKind = "float64"
	KindString   PropertyKind = "string"
	KindObject   PropertyKind = "object"
	KindExternal PropertyKind = "external"
)

// PropertySpec describes one observable property of a generated type.
type PropertySpec struct {
	Key  string       `json:"key"`
	Kind PropertyKind `json:"kind"`

	// Type is the Go type of the property value, e.g. "int64",
	// "*PersonAddress" or "*time.Time".
	Type string `json:"type"`

	// TypeName is the bare type name for object and external kinds.
	TypeName string `json:"type_name,omitempty"`

	// InitialValue is a Go expression for the initial value.
	InitialValue string `json:"initial_value"`

	// ImportPath is set for external kinds.
	ImportPath string `json:"import_path,omitempty"`
	// ImportAlias is the package qualifier used in Type for external kinds.
	ImportAlias string `json:"import_alias,omitempty"`
}

// IsInitialized reports whether the property has everything needed to
// generate code for it.
func (p PropertySpec) IsInitialized() bool {
	return p.Key != "" && p.Type != "" && (p.IsComplex() || p.InitialValue != "")
}

// IsComplex reports whether the property holds an object rather than a
// primitive value.
func (p PropertySpec) IsComplex() bool {
	return p.Kind == KindObject || p.Kind == KindExternal
}

// IsExternal reports whether the property type comes from another package.
func (p PropertySpec) IsExternal() bool {
	return p.Kind == KindExternal
}

// TypeSpec describes one generated host type.
type TypeSpec struct {
	Name       string         `json:"name"`
	Properties []PropertySpec `json:"properties"`
}

// GenerateOptions controls code generation.
type GenerateOptions struct {
	// Package is the Go package name of the generated file.
	Package string `json:"package"`
	// Source is recorded in the generated header when set.
	Source string `json:"source,omitempty"`
}

// ImportSpec is an external package referenced by generated code.
type ImportSpec struct {
	Path  string `json:"path"`
	Alias string `json:"alias"`
}

// SchemaPlan is everything collected from an object description: the
// generated types in dependency order (nested types first, root type last)
// and the external packages they reference.
type SchemaPlan struct {
	RootType string       `json:"root_type"`
	Types    []TypeSpec   `json:"types"`
	Imports  []ImportSpec `json:"imports,omitempty"`
}

// PropertyCount returns the number of properties over all types.
func (p SchemaPlan) PropertyCount() int {
	n := 0
	for _, t := range p.Types {
		n += len(t.Properties)
	}
	return n
}
