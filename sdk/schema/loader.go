package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

const (
	// DefaultMaxDepthQuery bounds the selection-set nesting of compiled
	// query documents, counted from the operation field itself.
	DefaultMaxDepthQuery = 5
	// DefaultMaxDepthMutation bounds the selection-set nesting of compiled
	// mutation documents.
	DefaultMaxDepthMutation = 3
)

const (
	// operationDocPlaceholder stands in for query and mutation fields the
	// schema does not describe.
	operationDocPlaceholder = "This is a placeholder description of the operation"
	// inputFieldPlaceholder stands in for input fields the schema does not
	// describe.
	inputFieldPlaceholder = "This is a placeholder description of the input field"
)

// Loader resolves a data.all schema document, validates it, and compiles
// every root query and mutation field into an Operation. The zero value is
// not usable; construct with NewLoader.
type Loader struct {
	maxDepthQuery    int
	maxDepthMutation int

	version    string
	schemaPath string
	schemaText string

	resolvedVersion string
	schema          *ast.Schema
	ops             map[string]*Operation
	order           []string
}

// Option configures a Loader before it loads and compiles.
type Option func(*Loader)

// WithVersion selects a built-in schema version, e.g. "v2_5". The default
// is the latest available version.
func WithVersion(version string) Option {
	return func(l *Loader) { l.version = version }
}

// WithSchemaPath loads the schema document from an explicit file instead of
// the built-in set. Takes precedence over WithVersion.
func WithSchemaPath(path string) Option {
	return func(l *Loader) { l.schemaPath = path }
}

// WithSchemaText supplies the schema document directly. Takes precedence
// over WithSchemaPath and WithVersion.
func WithSchemaText(text string) Option {
	return func(l *Loader) { l.schemaText = text }
}

// WithMaxDepthQuery overrides the query selection depth bound.
func WithMaxDepthQuery(depth int) Option {
	return func(l *Loader) { l.maxDepthQuery = depth }
}

// WithMaxDepthMutation overrides the mutation selection depth bound.
func WithMaxDepthMutation(depth int) Option {
	return func(l *Loader) { l.maxDepthMutation = depth }
}

// NewLoader builds a Loader, loads the selected schema, and compiles its
// operation table.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{
		maxDepthQuery:    DefaultMaxDepthQuery,
		maxDepthMutation: DefaultMaxDepthMutation,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.LoadSchema(); err != nil {
		return nil, err
	}
	if err := l.Compile(); err != nil {
		return nil, err
	}
	return l, nil
}

// BuiltinVersions returns the embedded schema versions in ascending order.
func BuiltinVersions() ([]string, error) {
	entries, err := fs.ReadDir(builtinSchemas, "schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}
	versions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		versions = append(versions, strings.SplitN(entry.Name(), ".", 2)[0])
	}
	sort.Strings(versions)
	return versions, nil
}

// LoadSchema resolves the schema source and validates the document.
// Source precedence: explicit text, explicit path, named version, latest
// built-in version.
func (l *Loader) LoadSchema() error {
	src, err := l.resolveSource()
	if err != nil {
		return err
	}
	parsed, gqlErr := gqlparser.LoadSchema(src)
	if gqlErr != nil {
		return &Error{Code: CodeSchemaInvalid, Message: fmt.Sprintf("schema %s failed validation", src.Name), Err: gqlErr}
	}
	l.schema = parsed
	log.Debugf("loaded schema %s (version %s)", src.Name, l.resolvedVersion)
	return nil
}

func (l *Loader) resolveSource() (*ast.Source, error) {
	if l.schemaText != "" {
		l.resolvedVersion = "inline"
		return &ast.Source{Name: "inline.graphql", Input: l.schemaText}, nil
	}
	if l.schemaPath != "" {
		raw, err := os.ReadFile(l.schemaPath)
		if err != nil {
			return nil, &Error{Code: CodeSchemaNotFound, Message: fmt.Sprintf("schema file %s not found", l.schemaPath), Err: err}
		}
		l.resolvedVersion = strings.SplitN(filepath.Base(l.schemaPath), ".", 2)[0]
		return &ast.Source{Name: filepath.Base(l.schemaPath), Input: string(raw)}, nil
	}

	versions, err := BuiltinVersions()
	if err != nil {
		return nil, &Error{Code: CodeSchemaNotFound, Message: "no built-in schemas available", Err: err}
	}
	if len(versions) == 0 {
		return nil, &Error{Code: CodeSchemaNotFound, Message: "no built-in schemas available"}
	}
	version := l.version
	if version == "" {
		version = versions[len(versions)-1]
	}
	name := version + ".graphql"
	raw, err := builtinSchemas.ReadFile("schemas/" + name)
	if err != nil {
		return nil, &Error{Code: CodeSchemaNotFound, Message: fmt.Sprintf("unknown schema version %q", version), Err: err}
	}
	l.resolvedVersion = version
	return &ast.Source{Name: name, Input: string(raw)}, nil
}

// Version returns the resolved schema version: a built-in version name, the
// base name of an explicit schema file, or "inline" for raw text.
func (l *Loader) Version() string {
	return l.resolvedVersion
}

// Schema returns the validated schema, or nil before LoadSchema succeeds.
func (l *Loader) Schema() *ast.Schema {
	return l.schema
}

// Compile builds the operation table: every root query field first, then
// every root mutation field, each in schema declaration order.
func (l *Loader) Compile() error {
	if l.schema == nil {
		if err := l.LoadSchema(); err != nil {
			return err
		}
	}
	l.ops = make(map[string]*Operation)
	l.order = nil
	if l.schema.Query != nil {
		for _, field := range l.schema.Query.Fields {
			if strings.HasPrefix(field.Name, "__") {
				continue
			}
			l.add(l.compileField(field, "query", l.maxDepthQuery))
		}
	}
	if l.schema.Mutation != nil {
		for _, field := range l.schema.Mutation.Fields {
			if strings.HasPrefix(field.Name, "__") {
				continue
			}
			l.add(l.compileField(field, "mutation", l.maxDepthMutation))
		}
	}
	log.Debugf("compiled %d operations from schema version %s", len(l.order), l.resolvedVersion)
	return nil
}

func (l *Loader) add(op *Operation) {
	l.ops[op.Name] = op
	l.order = append(l.order, op.Name)
}

// Operations returns the compiled operations, query fields first, then
// mutation fields, each group in schema declaration order.
func (l *Loader) Operations() []*Operation {
	out := make([]*Operation, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.ops[name])
	}
	return out
}

// Operation looks up a compiled operation by its canonical name.
func (l *Loader) Operation(name string) (*Operation, bool) {
	op, ok := l.ops[name]
	return op, ok
}

func (l *Loader) compileField(field *ast.FieldDefinition, kind string, maxDepth int) *Operation {
	inputArgs := make(map[string]string, len(field.Arguments))
	flat := make(map[string]FlatArg)
	for _, arg := range field.Arguments {
		inputArgs[arg.Name] = arg.Type.String()
		l.flattenArg(arg, flat)
	}
	return &Operation{
		OperationName:    field.Name,
		Name:             XformName(field.Name),
		QueryDefinition:  l.renderDocument(field, kind, maxDepth),
		Doc:              l.renderDoc(field),
		InputArgs:        inputArgs,
		FlattenInputArgs: flat,
	}
}

// flattenArg records the flattened keyword keys for one declared argument.
// Scalar, enum, and list-typed arguments flatten to a single key named
// after the argument; input object arguments descend to their leaf fields,
// one key per leaf, dot-joined from the argument name down.
func (l *Loader) flattenArg(arg *ast.ArgumentDefinition, out map[string]FlatArg) {
	if def := l.inputObjectDef(arg.Type); def != nil {
		l.flattenInputFields(arg.Name, def, out, map[string]bool{def.Name: true})
		return
	}
	out[arg.Name] = FlatArg{Description: arg.Description, Path: arg.Name}
}

func (l *Loader) flattenInputFields(prefix string, def *ast.Definition, out map[string]FlatArg, seen map[string]bool) {
	for _, field := range def.Fields {
		path := prefix + "." + field.Name
		if sub := l.inputObjectDef(field.Type); sub != nil && !seen[sub.Name] {
			seen[sub.Name] = true
			l.flattenInputFields(path, sub, out, seen)
			seen[sub.Name] = false
			continue
		}
		desc := field.Description
		if desc == "" {
			desc = inputFieldPlaceholder
		}
		out[path] = FlatArg{Description: desc, Path: path}
	}
}

// inputObjectDef returns the input object definition behind typ, or nil for
// scalars, enums, and any list type. Lists always flatten to a single key:
// element-wise keys are not representable in a flat keyword surface.
func (l *Loader) inputObjectDef(typ *ast.Type) *ast.Definition {
	if typ.Elem != nil {
		return nil
	}
	def := l.schema.Types[typ.Name()]
	if def != nil && def.Kind == ast.InputObject {
		return def
	}
	return nil
}

// renderDoc builds the operation documentation: the field description or a
// placeholder, then the input object arguments and return type when the
// field takes any input objects.
func (l *Loader) renderDoc(field *ast.FieldDefinition) string {
	desc := field.Description
	if desc == "" {
		desc = operationDocPlaceholder
	}
	var inputArgs []*ast.ArgumentDefinition
	for _, arg := range field.Arguments {
		if l.inputObjectDef(arg.Type) != nil {
			inputArgs = append(inputArgs, arg)
		}
	}
	if len(inputArgs) == 0 {
		return desc
	}
	var b strings.Builder
	b.WriteString(desc)
	b.WriteString("\n\nArguments:\n")
	for _, arg := range inputArgs {
		fmt.Fprintf(&b, "  %s : %s\n", arg.Name, arg.Type.String())
		argDesc := arg.Description
		if argDesc == "" {
			argDesc = inputFieldPlaceholder
		}
		fmt.Fprintf(&b, "    %s\n", argDesc)
	}
	fmt.Fprintf(&b, "\nReturns:\n  %s\n", field.Type.Name())
	return b.String()
}

// renderDocument renders the single-field document for a root field.
// kind is "query" or "mutation"; maxDepth bounds how many selection-set
// levels the document may contain, counting the operation field itself as
// the first level.
func (l *Loader) renderDocument(field *ast.FieldDefinition, kind string, maxDepth int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(kind)
	b.WriteString(" ")
	b.WriteString(field.Name)
	if len(field.Arguments) > 0 {
		decls := make([]string, 0, len(field.Arguments))
		for _, arg := range field.Arguments {
			decls = append(decls, fmt.Sprintf("$%s: %s", arg.Name, arg.Type.String()))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(decls, ", "))
		b.WriteString(")")
	}
	b.WriteString("{\n  ")
	b.WriteString(field.Name)
	if len(field.Arguments) > 0 {
		calls := make([]string, 0, len(field.Arguments))
		for _, arg := range field.Arguments {
			calls = append(calls, fmt.Sprintf("%s: $%s", arg.Name, arg.Name))
		}
		b.WriteString("(")
		b.WriteString(strings.Join(calls, ", "))
		b.WriteString(")")
	}
	if def := l.schema.Types[field.Type.Name()]; def != nil && expandable(def.Kind) {
		remaining := maxDepth - 1
		if remaining < 1 {
			// A depth bound of one still has to yield a valid document,
			// so the return type's own leaves are always selected.
			remaining = 1
		}
		lines := l.expandSelection(def, remaining, 4)
		if len(lines) == 0 {
			lines = []string{"    __typename"}
		}
		b.WriteString("{\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n  }")
	}
	b.WriteString("\n}")
	return b.String()
}

// expandSelection returns one rendered line per selected field of def.
// remaining counts how many selection-set levels may still be opened,
// including the one being rendered: object-typed fields are entered only
// while more than one level remains, so exhausting the bound truncates a
// branch rather than failing it. Recursive types are cut by the same bound.
func (l *Loader) expandSelection(def *ast.Definition, remaining, indent int) []string {
	pad := strings.Repeat(" ", indent)
	var lines []string
	if def.Kind == ast.Union {
		for _, name := range def.Types {
			member := l.schema.Types[name]
			if member == nil {
				continue
			}
			sub := l.expandSelection(member, remaining, indent+2)
			if len(sub) == 0 {
				continue
			}
			lines = append(lines, pad+"... on "+name+" {")
			lines = append(lines, sub...)
			lines = append(lines, pad+"}")
		}
		return lines
	}
	for _, field := range def.Fields {
		if strings.HasPrefix(field.Name, "__") {
			continue
		}
		ftype := l.schema.Types[field.Type.Name()]
		if ftype == nil || !expandable(ftype.Kind) {
			lines = append(lines, pad+field.Name)
			continue
		}
		if remaining <= 1 {
			continue
		}
		sub := l.expandSelection(ftype, remaining-1, indent+2)
		if len(sub) == 0 {
			continue
		}
		lines = append(lines, pad+field.Name+" {")
		lines = append(lines, sub...)
		lines = append(lines, pad+"}")
	}
	return lines
}

func expandable(kind ast.DefinitionKind) bool {
	switch kind {
	case ast.Object, ast.Interface, ast.Union:
		return true
	default:
		return false
	}
}
