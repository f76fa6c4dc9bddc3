// Package openapi provides reflective OpenAPI 3.0 specification generation.
// Schemas are derived from the JSON tags of the request and response types.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces OpenAPI 3.0 specifications from registered operations.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	operations  []Operation
	mu          sync.RWMutex
	cachedSpec  *openapi3.T
}

// Operation describes one route for OpenAPI generation.
type Operation struct {
	Method   string // HTTP method (e.g., http.MethodGet)
	Path     string // chi-style path (e.g., "/api/v1/packs/{id}")
	ID       string // Unique operation id
	Summary  string
	Tag      string
	Request  any // Request body model, nil for none
	Response any // Response body model, nil for an empty response
	Status   int // Success status, defaults to 200
	Query    []QueryParam
}

// QueryParam is an optional query string parameter.
type QueryParam struct {
	Name        string
	Type        string // "integer", "boolean" or "string"
	Description string
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) {
		g.description = description
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		g.servers = append(g.servers, url)
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "Packlist API",
		version:     "1.0.0",
		description: "Items, packs and pack composition",
		operations:  make([]Operation, 0),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Register adds operations to the generator.
func (g *Generator) Register(ops ...Operation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.operations = append(g.operations, ops...)
	g.cachedSpec = nil // Invalidate cache
}

// Generate produces the complete OpenAPI 3.0 specification.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedSpec != nil {
		spec := g.cachedSpec
		g.mu.RUnlock()
		return spec
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Servers: make(openapi3.Servers, 0, len(g.servers)),
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	for _, op := range g.operations {
		g.addOperation(spec, op)
	}

	g.cachedSpec = spec
	return spec
}

// Handler returns an HTTP handler that serves the OpenAPI specification.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := g.Generate()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

// =============================================================================
// Operation Generation
// =============================================================================

func (g *Generator) addOperation(spec *openapi3.T, op Operation) {
	item := spec.Paths.Value(op.Path)
	if item == nil {
		item = &openapi3.PathItem{Parameters: pathParameters(op.Path)}
		spec.Paths.Set(op.Path, item)
	}

	operation := &openapi3.Operation{
		OperationID: op.ID,
		Summary:     op.Summary,
		Responses:   openapi3.NewResponses(),
	}
	if op.Tag != "" {
		operation.Tags = []string{op.Tag}
	}

	for _, q := range op.Query {
		param := openapi3.NewQueryParameter(q.Name).WithSchema(&openapi3.Schema{Type: &openapi3.Types{q.Type}})
		param.Description = q.Description
		operation.Parameters = append(operation.Parameters, &openapi3.ParameterRef{Value: param})
	}

	if op.Request != nil {
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchemaRef(g.componentRef(spec, op.Request)),
		}
	}

	status := op.Status
	if status == 0 {
		status = http.StatusOK
	}
	response := openapi3.NewResponse().WithDescription(http.StatusText(status))
	if op.Response != nil {
		response = response.WithJSONSchemaRef(g.componentRef(spec, op.Response))
	}
	operation.Responses = openapi3.NewResponses(
		openapi3.WithStatus(status, &openapi3.ResponseRef{Value: response}),
		openapi3.WithName("default", openapi3.NewResponse().
			WithDescription("Error").
			WithJSONSchemaRef(g.componentRef(spec, errorModel{}))),
	)

	item.SetOperation(op.Method, operation)
}

// pathParameters declares every {name} segment of path as an int64 parameter.
func pathParameters(path string) openapi3.Parameters {
	var params openapi3.Parameters
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			name := strings.Trim(segment, "{}")
			params = append(params, &openapi3.ParameterRef{
				Value: openapi3.NewPathParameter(name).WithSchema(openapi3.NewInt64Schema()),
			})
		}
	}
	return params
}

// errorModel mirrors the API's error body.
type errorModel struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// =============================================================================
// Schema Generation
// =============================================================================

// componentRef registers model under its type name and returns a resolved
// reference to it.
func (g *Generator) componentRef(spec *openapi3.T, model any) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := schemaName(t)

	existing, ok := spec.Components.Schemas[name]
	if !ok {
		existing = g.extractSchema(t)
		spec.Components.Schemas[name] = existing
	}

	return &openapi3.SchemaRef{
		Ref:   "#/components/schemas/" + name,
		Value: existing.Value,
	}
}

// extractSchema extracts an OpenAPI schema from a Go struct. Embedded
// structs are flattened the way encoding/json flattens them.
func (g *Generator) extractSchema(t reflect.Type) *openapi3.SchemaRef {
	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}
	g.addFields(schema, t)

	sort.Strings(schema.Required)
	return &openapi3.SchemaRef{Value: schema}
}

func (g *Generator) addFields(schema *openapi3.Schema, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Get JSON tag
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		parts := strings.Split(jsonTag, ",")

		// Flatten embedded structs without their own JSON name
		if field.Anonymous && parts[0] == "" && field.Type.Kind() == reflect.Struct {
			g.addFields(schema, field.Type)
			continue
		}

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if parts[0] != "" {
			name = parts[0]
		}

		propSchema := g.goTypeToSchema(field.Type)
		if propSchema == nil {
			continue
		}
		schema.Properties[name] = propSchema
		if !contains(parts[1:], "omitempty") && field.Type.Kind() != reflect.Ptr {
			schema.Required = append(schema.Required, name)
		}
	}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Float32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "float"}}

	case reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "double"}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: g.goTypeToSchema(t.Elem()),
			},
		}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		return g.extractSchema(t)

	default:
		// Unknown type, return generic object
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}
}

// =============================================================================
// Helpers
// =============================================================================

// schemaName turns a Go type name into a component name, dropping a
// trailing "Response" and capitalizing unexported names.
func schemaName(t reflect.Type) string {
	name := strings.TrimSuffix(t.Name(), "Response")
	return capitalize(name)
}

// capitalize returns the string with the first letter capitalized.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
