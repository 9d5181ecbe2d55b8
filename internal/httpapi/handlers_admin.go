package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"tablepos/backend/internal/domain"
)

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.service.ListCategories(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.CategoryCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	category, err := a.service.CreateCategory(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"category": category})
}

func (a *API) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context(), r.URL.Query().Get("category_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductRequest
	if !decodeBody(w, r, &req) {
		return
	}
	product, err := a.service.CreateProduct(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductRequest
	if !decodeBody(w, r, &req) {
		return
	}
	product, err := a.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := a.service.ListTables(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (a *API) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req domain.TableCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	table, err := a.service.CreateTable(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"table": table})
}

func (a *API) handleUpdateTableLayout(w http.ResponseWriter, r *http.Request) {
	var req domain.TableLayoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	table, err := a.service.UpdateTableLayout(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": table})
}

func (a *API) handleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := a.service.ListBanks(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"banks": banks})
}

func (a *API) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	var req domain.BankCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bank, err := a.service.CreateBank(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"bank": bank})
}

func (a *API) handleUpdateBank(w http.ResponseWriter, r *http.Request) {
	var req domain.BankUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bank, err := a.service.UpdateBank(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bank": bank})
}

func (a *API) handleRegisterExpense(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := a.service.RegisterExpense(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

func (a *API) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	txs, err := a.service.ListTransactions(r.Context(), domain.TransactionFilter{
		Type:   strings.ToUpper(strings.TrimSpace(query.Get("type"))),
		BankID: strings.TrimSpace(query.Get("bank_id")),
		Limit:  parsePositiveLimit(query.Get("limit"), 100, 500),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (a *API) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := a.service.ListEmployees(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": employees})
}

func (a *API) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req domain.EmployeeCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	employee, err := a.service.CreateEmployee(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"employee": employee})
}

func (a *API) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.service.DashboardStats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleSalesOverTime(w http.ResponseWriter, r *http.Request) {
	days, err := a.service.SalesOverTime(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (a *API) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.TopProducts(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := a.service.ListAuditLogs(r.Context(), parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}
