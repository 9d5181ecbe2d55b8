package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tablepos/backend/internal/domain"
)

func (a *API) handleGetTableOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetTableOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handleUpsertOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderUpsertRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := a.service.UpsertTableOrder(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handleFinalizeOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.FinalizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sale, err := a.service.FinalizeOrder(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleDirectSale(w http.ResponseWriter, r *http.Request) {
	var req domain.DirectSaleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sale, err := a.service.CreateDirectSale(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (a *API) handleActiveShift(w http.ResponseWriter, r *http.Request) {
	shift, err := a.service.GetActiveShift(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shift": shift})
}

func (a *API) handleListShifts(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 500)
	shifts, err := a.service.ListShifts(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shifts": shifts})
}

func (a *API) handleOpenShift(w http.ResponseWriter, r *http.Request) {
	var req domain.ShiftOpenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	shift, err := a.service.OpenShift(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"shift": shift})
}

func (a *API) handleCloseShift(w http.ResponseWriter, r *http.Request) {
	var req domain.ShiftCloseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	shift, err := a.service.CloseShift(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shift": shift})
}

func (a *API) handleClockIn(w http.ResponseWriter, r *http.Request) {
	entry, err := a.service.ClockIn(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (a *API) handleClockOut(w http.ResponseWriter, r *http.Request) {
	entry, err := a.service.ClockOut(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}
