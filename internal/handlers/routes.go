// internal/handlers/routes.go
package handlers

import "net/http"

const apiV1 = "/api/v1"

// Routes groups the handlers served by the API
type Routes struct {
	Health    *HealthHandler
	Locations *LocationHandler
	Inventory *InventoryHandler
	Orders    *OrderHandler
	Dashboard *DashboardHandler
}

// Register mounts every route on mux. Nil handlers are skipped.
func (rt Routes) Register(mux *http.ServeMux) {
	if h := rt.Health; h != nil {
		mux.HandleFunc("GET /health", h.Health)
		mux.HandleFunc("GET /ready", h.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", h.Health)
	}

	if h := rt.Locations; h != nil {
		mux.HandleFunc("GET "+apiV1+"/locations", h.ListLocations)
		mux.HandleFunc("POST "+apiV1+"/locations", h.CreateLocation)
		mux.HandleFunc("PUT "+apiV1+"/locations/{name}", h.UpdateLocation)
		mux.HandleFunc("POST "+apiV1+"/locations/{name}/rename", h.RenameLocation)
		mux.HandleFunc("DELETE "+apiV1+"/locations/{name}", h.DeleteLocation)
	}

	if h := rt.Inventory; h != nil {
		mux.HandleFunc("GET "+apiV1+"/items", h.ListItems)
		mux.HandleFunc("POST "+apiV1+"/items", h.CreateItem)
		mux.HandleFunc("GET "+apiV1+"/items/{id}", h.GetItem)
		mux.HandleFunc("PUT "+apiV1+"/items/{id}/allocations", h.Allocate)
		mux.HandleFunc("POST "+apiV1+"/items/{id}/transfer", h.Transfer)
		mux.HandleFunc("POST "+apiV1+"/items/{id}/adjust", h.Adjust)
		mux.HandleFunc("POST "+apiV1+"/items/{id}/count", h.RecordCount)
		mux.HandleFunc("POST "+apiV1+"/items/{id}/count/reconcile", h.ReconcileCount)
		mux.HandleFunc("GET "+apiV1+"/preferences/{code}", h.GetPreference)
		mux.HandleFunc("GET "+apiV1+"/suggestions", h.Suggest)
	}

	if h := rt.Orders; h != nil {
		mux.HandleFunc("POST "+apiV1+"/orders/receive", h.ReceiveOrder)
		mux.HandleFunc("POST "+apiV1+"/orders/consolidate", h.Consolidate)
		mux.HandleFunc("POST "+apiV1+"/orders/import", h.ImportOrders)
		mux.HandleFunc("GET "+apiV1+"/orders/import/{id}", h.ImportStatus)
	}

	if h := rt.Dashboard; h != nil {
		mux.HandleFunc("GET "+apiV1+"/dashboard", h.GetDashboard)
	}
}
