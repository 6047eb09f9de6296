package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/notgodfather/canteenapp/internal/menu"
)

type MenuHandler struct {
	repo   menu.Repository
	logger *log.Logger
}

func NewMenuHandler(repo menu.Repository, logger *log.Logger) *MenuHandler {
	return &MenuHandler{repo: repo, logger: logger}
}

func (h *MenuHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.repo.List(ctx)
	if err != nil {
		h.logger.Printf("list menu error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load menu")
		return
	}
	if items == nil {
		items = []menu.Item{}
	}

	writeJSON(w, http.StatusOK, items)
}
