package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Note  string   `json:"note,omitempty"`
	Limit *int     `json:"limit"`
	Tags  []string `json:"tags"`
}

type widgetEntry struct {
	widget
	Selected int `json:"selected"`
}

func TestGenerate_PathsAndSchemas(t *testing.T) {
	g := NewGenerator(WithTitle("Test API"), WithVersion("0.1.0"), WithDescription("Widgets."), WithServer("http://localhost:8080"))
	g.Register(
		Operation{Method: http.MethodGet, Path: "/widgets/{id}", ID: "getWidget", Response: widget{}},
		Operation{Method: http.MethodPut, Path: "/widgets/{id}", ID: "putWidget", Request: widget{}, Response: widget{}},
		Operation{Method: http.MethodGet, Path: "/widgets/{id}/entries", ID: "entries", Response: widgetEntry{},
			Query: []QueryParam{{Name: "included", Type: "boolean"}}},
		Operation{Method: http.MethodDelete, Path: "/widgets/{id}", ID: "deleteWidget", Status: http.StatusNoContent},
	)

	spec := g.Generate()
	assert.Equal(t, "Test API", spec.Info.Title)
	assert.Equal(t, "Widgets.", spec.Info.Description)
	require.Len(t, spec.Servers, 1)

	item := spec.Paths.Value("/widgets/{id}")
	require.NotNil(t, item)
	assert.NotNil(t, item.Get)
	assert.NotNil(t, item.Put)
	assert.NotNil(t, item.Delete)
	require.Len(t, item.Parameters, 1)
	assert.Equal(t, "id", item.Parameters[0].Value.Name)
	assert.NotNil(t, item.Delete.Responses.Status(http.StatusNoContent))

	schema := spec.Components.Schemas["Widget"]
	require.NotNil(t, schema)
	assert.Contains(t, schema.Value.Properties, "limit")
	assert.True(t, schema.Value.Properties["limit"].Value.Nullable)
	assert.Equal(t, []string{"id", "name", "tags"}, schema.Value.Required)

	entry := spec.Components.Schemas["WidgetEntry"]
	require.NotNil(t, entry)
	assert.Contains(t, entry.Value.Properties, "name", "embedded fields are flattened")
	assert.Contains(t, entry.Value.Properties, "selected")

	require.NoError(t, spec.Validate(context.Background()))
}

func TestGenerate_Cached(t *testing.T) {
	g := NewGenerator()
	first := g.Generate()
	assert.Same(t, first, g.Generate())

	g.Register(Operation{Method: http.MethodGet, Path: "/ping", ID: "ping"})
	assert.NotSame(t, first, g.Generate())
}

func TestHandler(t *testing.T) {
	g := NewGenerator()
	g.Register(Operation{Method: http.MethodGet, Path: "/ping", ID: "ping"})

	rec := httptest.NewRecorder()
	g.Handler()(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"/ping"`)
}
