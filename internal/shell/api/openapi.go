package api

import (
	"net/http"

	"github.com/artpar/packlist/internal/core/domain"
	"github.com/artpar/packlist/internal/shell/api/openapi"
)

// NewOpenAPIGenerator describes every route served by Handler.Routes.
func NewOpenAPIGenerator(opts ...openapi.Option) *openapi.Generator {
	base := []openapi.Option{
		openapi.WithDescription("Items, packs and the attributes a pack derives from its members."),
	}
	g := openapi.NewGenerator(append(base, opts...)...)

	pagination := []openapi.QueryParam{
		{Name: "limit", Type: "integer", Description: "Page size, 1 to 1000"},
		{Name: "offset", Type: "integer", Description: "Rows to skip"},
	}
	included := []openapi.QueryParam{
		{Name: "included", Type: "boolean", Description: "true for members of the pack, false for candidates"},
	}

	g.Register(
		openapi.Operation{Method: http.MethodGet, Path: "/health", ID: "health", Summary: "Liveness check", Tag: "System", Response: HealthResponse{}},
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/defaults", ID: "getDefaults", Summary: "Form defaults and unit labels", Tag: "System", Response: domain.Defaults{}},

		// Items
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/items", ID: "listItems", Summary: "List items", Tag: "Items", Response: ListItemsResponse{}, Query: pagination},
		openapi.Operation{Method: http.MethodPost, Path: "/api/v1/items", ID: "createItem", Summary: "Create an item", Tag: "Items", Request: ItemRequest{}, Response: ItemResponse{}, Status: http.StatusCreated},
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/items/{id}", ID: "getItem", Summary: "Get an item", Tag: "Items", Response: ItemResponse{}},
		openapi.Operation{Method: http.MethodPut, Path: "/api/v1/items/{id}", ID: "updateItem", Summary: "Update an item", Tag: "Items", Request: ItemRequest{}, Response: ItemResponse{}},
		openapi.Operation{Method: http.MethodDelete, Path: "/api/v1/items/{id}", ID: "deleteItem", Summary: "Delete an item and its memberships", Tag: "Items", Status: http.StatusNoContent},

		// Packs
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/packs", ID: "listPacks", Summary: "List packs", Tag: "Packs", Response: ListPacksResponse{}, Query: pagination},
		openapi.Operation{Method: http.MethodPost, Path: "/api/v1/packs", ID: "createPack", Summary: "Create a pack with its memberships", Tag: "Packs", Request: PackRequest{}, Response: PackResponse{}, Status: http.StatusCreated},
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/packs/{id}", ID: "getPack", Summary: "Get a pack", Tag: "Packs", Response: PackResponse{}},
		openapi.Operation{Method: http.MethodPut, Path: "/api/v1/packs/{id}", ID: "updatePack", Summary: "Update a pack and optionally its memberships", Tag: "Packs", Request: PackRequest{}, Response: PackResponse{}},
		openapi.Operation{Method: http.MethodDelete, Path: "/api/v1/packs/{id}", ID: "deletePack", Summary: "Delete a pack and its memberships", Tag: "Packs", Status: http.StatusNoContent},

		// Composition
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/packs/{id}/attributes", ID: "resolveAttributes", Summary: "Resolve weight, volume, price and buildable amount", Tag: "Composition", Response: AttributesResponse{}},
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/packs/{id}/items", ID: "listPackItems", Summary: "Items in or not in a pack", Tag: "Composition", Response: ItemEntriesResponse{}, Query: included},
		openapi.Operation{Method: http.MethodPut, Path: "/api/v1/packs/{id}/items", ID: "setItemSelections", Summary: "Replace the item memberships of a pack", Tag: "Composition", Request: SelectionRequest{}, Response: ItemEntriesResponse{}},
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/packs/{id}/packs", ID: "listPackPacks", Summary: "Sub-packs in a pack or candidates that keep the graph acyclic", Tag: "Composition", Response: PackEntriesResponse{}, Query: included},
		openapi.Operation{Method: http.MethodPut, Path: "/api/v1/packs/{id}/packs", ID: "setPackSelections", Summary: "Replace the sub-pack memberships of a pack", Tag: "Composition", Request: SelectionRequest{}, Response: PackEntriesResponse{}},
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/packs/{id}/cycle-check/{candidate}", ID: "wouldCreateCycle", Summary: "Check whether including candidate would create a cycle", Tag: "Composition", Response: CycleCheckResponse{}},
	)

	return g
}
