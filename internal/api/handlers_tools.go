package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rcliao/memoya/internal/memo"
	"github.com/rcliao/memoya/internal/room"
)

type ToolHandler struct {
	exec *memo.Executor
}

func NewToolHandler(exec *memo.Executor) *ToolHandler {
	return &ToolHandler{exec: exec}
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Mutating    bool   `json:"mutating"`
}

// List handles GET /tools
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	defs := memo.Definitions()
	out := make([]toolInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, toolInfo{Name: d.Name, Description: d.Description, Mutating: d.Mutating})
	}
	writeJSON(w, http.StatusOK, out)
}

// Execute handles POST /tools/{name}?room=ID. The body is the tool input.
func (h *ToolHandler) Execute(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return
	}
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = room.DefaultID
	}

	res := h.exec.Execute(r.Context(), roomID, chi.URLParam(r, "name"), body)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

// Approve handles POST /actions/approve with a pending action as the body.
func (h *ToolHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var action memo.PendingAction
	if err := decodeJSON(r, &action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if action.Tool == "" {
		writeError(w, http.StatusBadRequest, "tool is required")
		return
	}
	res := h.exec.Approve(r.Context(), action)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}
