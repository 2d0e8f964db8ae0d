package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/buildinfo"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/config"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/database"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/middleware"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/printer"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/stock"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/websocket"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	DB        *database.DB
	Stock     *stock.Service
	Hub       *websocket.Hub
	Logger    logrus.FieldLogger
	JWTSecret string
	Labels    printer.Layout
}

// Router wraps the mux router and its services
type Router struct {
	*mux.Router
	db       *database.DB
	stock    *stock.Service
	hub      *websocket.Hub
	log      logrus.FieldLogger
	validate *validator.Validate
	labels   printer.Layout
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		db:       d.DB,
		stock:    d.Stock,
		hub:      d.Hub,
		log:      d.Logger,
		validate: validator.New(),
		labels:   d.Labels,
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}

	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	auth := middleware.Auth(d.JWTSecret)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth)

	allocations := api.PathPrefix("/container-stock-allocations").Subrouter()
	allocations.HandleFunc("/{id}", r.getAllocation).Methods("GET")
	allocations.HandleFunc("/{id}/allocate", r.allocate).Methods("POST")
	allocations.HandleFunc("/{id}/reconcile", r.reconcile).Methods("POST")

	api.HandleFunc("/inventory-record/{id}", r.getInventoryRecord).Methods("GET")
	api.HandleFunc("/inventory-record/{id}", r.updateInventoryRecord).Methods("PUT")
	api.HandleFunc("/inventory-record/{id}/pickups", r.listPickups).Methods("GET")

	putAway := api.PathPrefix("/put-away-stock").Subrouter()
	putAway.HandleFunc("", r.putAway).Methods("POST")
	putAway.HandleFunc("", r.listPutAway).Methods("GET")
	putAway.HandleFunc("/labels", r.putAwayLabels).Methods("GET")

	api.HandleFunc("/unit-loads/decompose", r.decompose).Methods("GET")

	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(auth)
	ws.HandleFunc("", r.serveWs).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	status := "ok"
	code := http.StatusOK
	if sqlDB, err := r.db.DB.DB(); err != nil || sqlDB.PingContext(req.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{
		"status": status,
		"build":  buildinfo.Current(),
	})
}

func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	websocket.ServeWs(r.hub, w, req)
}

// decode reads a JSON body into v and runs struct validation.
func (r *Router) decode(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request payload: %w", err)
	}
	if err := r.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("field %s failed %q validation", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps a domain error code to an HTTP status.
func statusFor(code stock.ErrorCode) int {
	switch code {
	case stock.ErrCodeValidation:
		return http.StatusBadRequest
	case stock.ErrCodeNotFound:
		return http.StatusNotFound
	case stock.ErrCodeConflict, stock.ErrCodeInvalidTransition:
		return http.StatusConflict
	case stock.ErrCodeInsufficientStock, stock.ErrCodeCapacityExceeded:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes domain errors with their code and details and
// hides everything else behind a 500.
func (r *Router) respondServiceError(w http.ResponseWriter, req *http.Request, fn string, err error) {
	if se, ok := stock.AsError(err); ok {
		respondJSON(w, statusFor(se.Code), map[string]any{
			"error":   se.Message,
			"code":    se.Code,
			"details": se.Details,
		})
		return
	}
	config.LogError(r.log, "handlers", fn, "request failed", map[string]string{"path": req.URL.Path}, err)
	respondError(w, http.StatusInternalServerError, "internal error")
}
