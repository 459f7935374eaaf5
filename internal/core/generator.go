package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"math"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/valter-silva-au/gokvo/pkg/models"
	"golang.org/x/mod/module"
)

// Generator turns object descriptions into Go host types built on pkg/kvo.
type Generator interface {
	// Plan validates obj and collects the types and imports it describes.
	Plan(obj models.ObjectSchema) (*models.SchemaPlan, error)
	// Generate writes gofmt-formatted Go source for obj to w.
	Generate(opts models.GenerateOptions, obj models.ObjectSchema, w io.Writer) error
}

// templateGenerator implements Generator with text/template and go/format.
type templateGenerator struct {
	tmpl *template.Template
}

// NewGenerator creates a Generator using the built-in host template.
func NewGenerator() Generator {
	return &templateGenerator{tmpl: hostTemplate}
}

// hostTemplateData is the value the host template is executed with.
type hostTemplateData struct {
	Package string
	Source  string
	Imports []models.ImportSpec
	Types   []models.TypeSpec
}

// Generate validates the options, collects the types described by obj,
// renders them and writes the formatted source to w.
func (g *templateGenerator) Generate(opts models.GenerateOptions, obj models.ObjectSchema, w io.Writer) error {
	if opts.Package == "" {
		return ValidationError{Problem: "must specify a Go package"}
	}
	if !token.IsIdentifier(opts.Package) {
		return ValidationError{Problem: fmt.Sprintf("%q is not a valid Go package name", opts.Package)}
	}

	plan, err := g.Plan(obj)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	data := hostTemplateData{
		Package: opts.Package,
		Source:  opts.Source,
		Imports: plan.Imports,
		Types:   plan.Types,
	}
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering host template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("formatting generated code: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return fmt.Errorf("writing generated code: %w", err)
	}
	return nil
}

// Plan validates obj and returns the generated types in dependency order.
func (g *templateGenerator) Plan(obj models.ObjectSchema) (*models.SchemaPlan, error) {
	return CollectTypes(obj)
}

// CollectTypes walks an object description depth-first. Nested types come
// before the type that contains them; the root type is last.
func CollectTypes(obj models.ObjectSchema) (*models.SchemaPlan, error) {
	root := EntryToProperty("", map[string]any(obj), "")
	if root.TypeName == "" {
		return nil, ValidationError{Problem: "outermost object must specify a type name with key " + models.KeyTypeName}
	}
	if root.IsExternal() {
		return nil, ValidationError{Problem: "outermost object cannot be an external type"}
	}

	c := &typeCollector{
		names:   make(map[string]string),
		imports: make(map[string]string),
		aliases: make(map[string]string),
	}
	if err := c.collect(root.TypeName, obj); err != nil {
		return nil, err
	}

	c.plan.RootType = root.TypeName
	for p, alias := range c.imports {
		c.plan.Imports = append(c.plan.Imports, models.ImportSpec{Path: p, Alias: alias})
	}
	sort.Slice(c.plan.Imports, func(i, j int) bool { return c.plan.Imports[i].Path < c.plan.Imports[j].Path })
	return &c.plan, nil
}

// EntryToProperty derives the property for one schema entry. The result is
// left uninitialised (see PropertySpec.IsInitialized) when the value has no
// Go mapping.
func EntryToProperty(key string, value any, enclosingType string) models.PropertySpec {
	prop := models.PropertySpec{Key: key}
	switch v := value.(type) {
	case map[string]any:
		// Either a nested type or an external one.
		rawName, named := v[models.KeyTypeName]
		if named {
			name, ok := rawName.(string)
			if !ok || name == "" {
				return prop
			}
			if pkg, ok := v[models.KeyPackage].(string); ok && pkg != "" {
				prop.Kind = models.KindExternal
				prop.TypeName = name
				prop.ImportPath = pkg
				prop.ImportAlias = defaultImportAlias(pkg)
				prop.Type = "*" + prop.ImportAlias + "." + name
				prop.InitialValue = "nil"
				return prop
			}
			prop.TypeName = CamelCaseKey(name)
		} else {
			prop.TypeName = enclosingType + CamelCaseKey(key)
		}
		prop.Kind = models.KindObject
		prop.Type = "*" + prop.TypeName
		prop.InitialValue = "New" + prop.TypeName + "()"
	case bool:
		prop.Kind = models.KindBool
		prop.Type = "bool"
		prop.InitialValue = strconv.FormatBool(v)
	case json.Number:
		s := v.String()
		if isFloatLiteral(s) {
			prop.Kind = models.KindFloat
			prop.Type = "float64"
		} else {
			prop.Kind = models.KindInt
			prop.Type = "int64"
		}
		prop.InitialValue = s
	case string:
		prop.Kind = models.KindString
		prop.Type = "string"
		prop.InitialValue = strconv.Quote(v)
	}
	return prop
}

// checkNumber reports numbers that have no int64 or float64 constant, the
// same values the YAML decoder rejects.
func checkNumber(n json.Number) error {
	s := n.String()
	if isFloatLiteral(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return fmt.Errorf("%s is out of range for float64", s)
		}
		return nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return fmt.Errorf("%s is out of range for int64", s)
	}
	return nil
}

func isFloatLiteral(s string) bool {
	return strings.ContainsAny(s, ".eE")
}

// CamelCaseKey turns a schema key into an exported Go name:
// "first_name" and "first-name" become "FirstName", "id" becomes "Id".
func CamelCaseKey(key string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' }) {
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	return b.String()
}

type typeCollector struct {
	plan models.SchemaPlan

	// names maps every top-level identifier the generated file declares to
	// the type that declares it.
	names map[string]string

	imports map[string]string // import path -> alias
	aliases map[string]string // alias -> import path
}

func (c *typeCollector) collect(typeName string, obj map[string]any) error {
	if !isExportedIdent(typeName) {
		return ValidationError{Field: typeName, Problem: "type name is not an exported Go identifier"}
	}
	for _, ident := range []string{typeName, "New" + typeName} {
		if owner, dup := c.names[ident]; dup {
			return ValidationError{Field: typeName, Problem: fmt.Sprintf("%s is already declared by type %s", ident, owner)}
		}
		c.names[ident] = typeName
	}

	kt := models.TypeSpec{Name: typeName, Properties: make([]models.PropertySpec, 0, len(obj))}
	methods := make(map[string]string)
	for _, k := range sortedKeys(obj) {
		if k == models.KeyTypeName || k == models.KeyPackage {
			continue
		}
		field := typeName + "." + k

		camel := CamelCaseKey(k)
		if !isExportedIdent(camel) {
			return ValidationError{Field: field, Problem: "key does not map to an exported Go identifier"}
		}
		for _, m := range []string{camel, "Set" + camel, "SubscribeTo" + camel} {
			if other, dup := methods[m]; dup {
				return ValidationError{Field: field, Problem: fmt.Sprintf("method %s collides with key %q", m, other)}
			}
			methods[m] = k
		}

		if n, ok := obj[k].(json.Number); ok {
			if err := checkNumber(n); err != nil {
				return ValidationError{Field: field, Problem: err.Error()}
			}
		}

		prop := EntryToProperty(k, obj[k], typeName)
		if !prop.IsInitialized() {
			return ValidationError{Field: field, Problem: fmt.Sprintf("don't know how to generate for value %s", describeValue(obj[k]))}
		}

		switch prop.Kind {
		case models.KindExternal:
			if err := c.addImport(field, &prop); err != nil {
				return err
			}
		case models.KindObject:
			if err := c.collect(prop.TypeName, obj[k].(map[string]any)); err != nil {
				return err
			}
		}
		kt.Properties = append(kt.Properties, prop)
	}

	c.plan.Types = append(c.plan.Types, kt)
	return nil
}

// addImport registers the package of an external property and rewrites the
// property type if its default alias is already taken by another path.
func (c *typeCollector) addImport(field string, prop *models.PropertySpec) error {
	if err := module.CheckImportPath(prop.ImportPath); err != nil {
		return ValidationError{Field: field, Problem: fmt.Sprintf("invalid %s: %v", models.KeyPackage, err)}
	}
	if !isExportedIdent(prop.TypeName) {
		return ValidationError{Field: field, Problem: fmt.Sprintf("external type %q is not an exported Go identifier", prop.TypeName)}
	}

	if alias, ok := c.imports[prop.ImportPath]; ok {
		prop.ImportAlias = alias
	} else {
		base := prop.ImportAlias
		alias := base
		for i := 2; c.aliasTaken(alias); i++ {
			alias = base + strconv.Itoa(i)
		}
		c.imports[prop.ImportPath] = alias
		c.aliases[alias] = prop.ImportPath
		prop.ImportAlias = alias
	}
	prop.Type = "*" + prop.ImportAlias + "." + prop.TypeName
	return nil
}

// reservedAliases are identifiers the host template uses itself.
var reservedAliases = map[string]bool{"kvo": true, "o": true}

func (c *typeCollector) aliasTaken(alias string) bool {
	if reservedAliases[alias] || token.IsKeyword(alias) {
		return true
	}
	_, taken := c.aliases[alias]
	return taken
}

var (
	majorVersionElem = regexp.MustCompile(`^v[0-9]+$`)
	nonIdentRunes    = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// defaultImportAlias guesses a package qualifier from an import path:
// "time" -> time, "github.com/google/uuid" -> uuid,
// "github.com/jackc/pgx/v5" -> pgx, "gopkg.in/yaml.v3" -> yaml_v3.
func defaultImportAlias(importPath string) string {
	base := path.Base(importPath)
	if majorVersionElem.MatchString(base) {
		if parent := path.Dir(importPath); parent != "." && parent != "/" {
			base = path.Base(parent)
		}
	}
	alias := strings.ToLower(nonIdentRunes.ReplaceAllString(base, "_"))
	if alias == "" || unicode.IsDigit(rune(alias[0])) {
		alias = "pkg_" + alias
	}
	return alias
}

func isExportedIdent(s string) bool {
	if !token.IsIdentifier(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
