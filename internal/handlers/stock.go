package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/printer"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/stock"
)

type allocateRequest struct {
	Allocations []stock.AllocationItem `json:"allocations" validate:"required,min=1,dive"`
}

func (r *Router) allocate(w http.ResponseWriter, req *http.Request) {
	var body allocateRequest
	if err := r.decode(req, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := r.stock.Allocate(req.Context(), mux.Vars(req)["id"], body.Allocations)
	if err != nil {
		r.respondServiceError(w, req, "allocate", err)
		return
	}
	// partial success still answers 200, failed items are listed in errors
	respondJSON(w, http.StatusOK, result)
}

func (r *Router) getAllocation(w http.ResponseWriter, req *http.Request) {
	view, err := r.stock.DescribeAllocation(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, req, "getAllocation", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (r *Router) reconcile(w http.ResponseWriter, req *http.Request) {
	apply := req.URL.Query().Get("dryRun") != "true"
	result, err := r.stock.Reconcile(req.Context(), mux.Vars(req)["id"], apply)
	if err != nil {
		r.respondServiceError(w, req, "reconcile", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (r *Router) getInventoryRecord(w http.ResponseWriter, req *http.Request) {
	rec, err := r.stock.GetUnitLoad(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, req, "getInventoryRecord", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (r *Router) updateInventoryRecord(w http.ResponseWriter, req *http.Request) {
	var body stock.UpdateRecordRequest
	if err := r.decode(req, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := r.stock.Transition(req.Context(), mux.Vars(req)["id"], body)
	if err != nil {
		r.respondServiceError(w, req, "updateInventoryRecord", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (r *Router) listPickups(w http.ResponseWriter, req *http.Request) {
	rec, err := r.stock.GetUnitLoad(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, req, "listPickups", err)
		return
	}
	entries := []models.PickupEntry{}
	if rec.OutboundProductLineID != nil {
		entries, err = r.stock.PickupEntries(req.Context(), *rec.OutboundProductLineID)
		if err != nil {
			r.respondServiceError(w, req, "listPickups", err)
			return
		}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (r *Router) putAway(w http.ResponseWriter, req *http.Request) {
	var body stock.PutAwayRequest
	if err := r.decode(req, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := r.stock.PutAway(req.Context(), body)
	if err != nil {
		r.respondServiceError(w, req, "putAway", err)
		return
	}
	status := http.StatusOK
	if len(result.Created) > 0 {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}

func (r *Router) listPutAway(w http.ResponseWriter, req *http.Request) {
	jobID := req.URL.Query().Get("jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "jobId is required")
		return
	}
	records, err := r.stock.ListPutAway(req.Context(), jobID)
	if err != nil {
		r.respondServiceError(w, req, "listPutAway", err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// putAwayLabels prints one QR label per stored unit load of a job.
func (r *Router) putAwayLabels(w http.ResponseWriter, req *http.Request) {
	jobID := req.URL.Query().Get("jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "jobId is required")
		return
	}
	records, err := r.stock.ListPutAway(req.Context(), jobID)
	if err != nil {
		r.respondServiceError(w, req, "putAwayLabels", err)
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "no unit loads stored for job "+jobID)
		return
	}

	skuIDs := make([]string, 0, len(records))
	for _, rec := range records {
		skuIDs = append(skuIDs, rec.SKUID)
	}
	var skus []models.SKU
	if err := r.db.WithContext(req.Context()).Where("id IN ?", skuIDs).Find(&skus).Error; err != nil {
		r.respondServiceError(w, req, "putAwayLabels", fmt.Errorf("failed to load skus: %w", err))
		return
	}
	codes := make(map[string]string, len(skus))
	for _, s := range skus {
		codes[s.ID] = s.Code
	}

	labels := make([]printer.Label, 0, len(records))
	for _, rec := range records {
		labels = append(labels, printer.LabelFromRecord(rec, codes[rec.SKUID]))
	}
	pdfBytes, err := printer.GenerateLabelsPDF(labels, r.labels)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"labels_%s.pdf\"", sanitizeFilename(jobID)))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}

// decompose previews the unit loads a received quantity splits into.
func (r *Router) decompose(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	received, err := strconv.Atoi(q.Get("receivedQty"))
	if err != nil || received < 0 {
		respondError(w, http.StatusBadRequest, "receivedQty must be a non-negative integer")
		return
	}
	capacity := stock.ParseCapacity(q.Get("unitCapacity"))
	qtys := stock.UnitQuantities(received, capacity)
	respondJSON(w, http.StatusOK, map[string]any{
		"receivedQty":  received,
		"unitCapacity": capacity,
		"unitCount":    len(qtys),
		"units":        qtys,
	})
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
