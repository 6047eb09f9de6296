package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/notgodfather/canteenapp/internal/menu"
	"github.com/notgodfather/canteenapp/internal/middleware"
	"github.com/notgodfather/canteenapp/internal/order"
)

type Deps struct {
	Logger           *log.Logger
	OrderService     OrderService
	OrderRepo        order.Repository
	MenuRepo         menu.Repository
	CORSAllowOrigins []string
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler)

	oh := NewOrderHandler(d.OrderService, d.OrderRepo, d.Logger)
	mux.HandleFunc("POST /api/create-order", oh.CreateOrder)
	mux.HandleFunc("POST /api/verify-order", oh.VerifyOrder)
	mux.HandleFunc("POST /api/cashfree/webhook", oh.Webhook)
	mux.HandleFunc("GET /api/users/{userId}/orders", oh.ListOrdersByUser)

	mh := NewMenuHandler(d.MenuRepo, d.Logger)
	mux.HandleFunc("GET /api/menu", mh.ListMenu)

	var handler http.Handler = mux
	handler = middleware.CORS(d.CORSAllowOrigins)(handler)
	handler = middleware.Recover(d.Logger)(handler)

	return handler
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "canteen-backend",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeErrorDetails(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, map[string]any{"error": msg, "details": details})
}
