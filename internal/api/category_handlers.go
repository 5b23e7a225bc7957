package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/marketplace/internal/command"
)

// GetCategories returns all categories
func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListCategories())
}

// GetCategory returns a single category by ID
func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/categories/")
	c, ok := h.queryHandler.GetCategory(id)
	if !ok {
		respondJSONError(w, "Category not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// CreateCategory creates a new category (admin only)
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateCategory
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.cmdHandler.CreateCategory(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// UpdateCategory updates an existing category (admin only)
func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateCategory
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.CategoryID = extractPathParam(r.URL.Path, "/api/admin/categories/")

	if err := h.cmdHandler.UpdateCategory(r.Context(), cmd); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Category updated"})
}

// DeleteCategory removes a category (admin only)
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/admin/categories/")
	if err := h.cmdHandler.DeleteCategory(r.Context(), command.DeleteCategory{CategoryID: id}); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}
