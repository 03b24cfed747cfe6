package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rcliao/memoya/internal/memo"
	"github.com/rcliao/memoya/internal/model"
	"github.com/rcliao/memoya/internal/room"
	"github.com/rcliao/memoya/internal/store"
)

type MessageHandler struct {
	st    *store.Partitioned
	memos *memo.Repo
	rooms *room.Manager
}

func NewMessageHandler(st *store.Partitioned) *MessageHandler {
	return &MessageHandler{st: st}
}

type listResponse struct {
	Months   int             `json:"months"`
	HasMore  bool            `json:"has_more"`
	Messages []model.Message `json:"messages"`
	Warning  string          `json:"warning,omitempty"`
}

type createRequest struct {
	Text       string            `json:"text"`
	Type       model.MessageType `json:"type"`
	Timestamp  *time.Time        `json:"timestamp"`
	IsMemory   bool              `json:"isMemory"`
	IsFavorite bool              `json:"isFavorite"`
}

type updateRequest struct {
	Text       *string            `json:"text"`
	Type       *model.MessageType `json:"type"`
	IsMemory   *bool              `json:"isMemory"`
	IsFavorite *bool              `json:"isFavorite"`
}

// storeError maps store failures to a status code.
func storeError(w http.ResponseWriter, err error) {
	var se *store.StorageError
	var pe *store.ParseError
	switch {
	case errors.As(err, &se):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &pe):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrFutureMonth):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeResult(w http.ResponseWriter, res store.Result, err error) {
	if err != nil {
		storeError(w, err)
		return
	}
	if !res.Found() {
		writeJSON(w, http.StatusNotFound, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health handles GET /health
func (h *MessageHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "current_month": h.st.CurrentMonthKey()}
	months, err := h.st.ListPartitions(r.Context())
	if err != nil {
		resp["status"] = "degraded"
		resp["error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp["partitions"] = len(months)
	writeJSON(w, http.StatusOK, resp)
}

// roomID returns the ?room= parameter, else the current room.
func (h *MessageHandler) roomID(r *http.Request) (string, error) {
	if id := r.URL.Query().Get("room"); id != "" {
		return id, nil
	}
	if h.rooms == nil {
		return room.DefaultID, nil
	}
	cur, err := h.rooms.Current(r.Context())
	if err != nil {
		return "", err
	}
	return cur.ID, nil
}

// annotate fills the memo status of record and memo messages.
func (h *MessageHandler) annotate(r *http.Request, msgs []model.Message) error {
	if h.memos == nil {
		return nil
	}
	id, err := h.roomID(r)
	if err != nil {
		return err
	}
	return h.memos.AnnotateStatus(r.Context(), id, msgs)
}

// List handles GET /messages?months=N&room=ID
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	months := 1
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "months must be a positive integer")
			return
		}
		months = n
	}

	// Unreadable partitions are skipped; the rest is still served.
	msgs, err := h.st.Paginate(r.Context(), months)
	resp := listResponse{Months: months, Messages: msgs}
	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	if resp.HasMore, err = h.st.HasMore(r.Context(), months); err != nil {
		errs = append(errs, fmt.Errorf("has more: %w", err))
	}
	if err := h.annotate(r, msgs); err != nil {
		errs = append(errs, fmt.Errorf("memo status: %w", err))
	}
	if len(errs) > 0 {
		resp.Warning = errors.Join(errs...).Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /messages
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Type != "" && !model.ValidTypes[req.Type] {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}

	msg := model.Message{Text: req.Text, Type: req.Type, IsMemory: req.IsMemory, IsFavorite: req.IsFavorite}
	if req.Timestamp != nil {
		msg.Timestamp = *req.Timestamp
	}
	saved, err := h.st.Append(r.Context(), msg)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// Get handles GET /messages/{id}?room=ID
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	msg, res, err := h.st.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, err)
		return
	}
	if !res.Found() {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	one := []model.Message{*msg}
	if err := h.annotate(r, one); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, one[0])
}

// Update handles PATCH /messages/{id}
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Type != nil && !model.ValidTypes[*req.Type] {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}
	patch := store.Patch{Text: req.Text, Type: req.Type, IsMemory: req.IsMemory, IsFavorite: req.IsFavorite}
	res, err := h.st.UpdateByID(r.Context(), chi.URLParam(r, "id"), patch)
	writeResult(w, res, err)
}

// Delete handles DELETE /messages/{id}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.st.SoftDelete(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, res, err)
}

// Restore handles POST /messages/{id}/restore
func (h *MessageHandler) Restore(w http.ResponseWriter, r *http.Request) {
	res, err := h.st.Restore(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, res, err)
}

// MarkPermanent handles POST /messages/{id}/permanent
func (h *MessageHandler) MarkPermanent(w http.ResponseWriter, r *http.Request) {
	res, err := h.st.MarkPermanentlyDeleted(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, res, err)
}

// Purge handles DELETE /messages/{id}/purge
func (h *MessageHandler) Purge(w http.ResponseWriter, r *http.Request) {
	res, err := h.st.Purge(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, res, err)
}

// Search handles GET /messages/search?q=...&type=...&limit=N
func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("q") == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	months, _ := strconv.Atoi(q.Get("months"))
	msgs, err := h.st.Search(r.Context(), store.SearchParams{
		Query:  q.Get("q"),
		Type:   model.MessageType(q.Get("type")),
		Months: months,
		Limit:  limit,
	})
	if err != nil && len(msgs) == 0 {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Partitions handles GET /partitions
func (h *MessageHandler) Partitions(w http.ResponseWriter, r *http.Request) {
	months, err := h.st.ListPartitions(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}

// Trash handles GET /trash
func (h *MessageHandler) Trash(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.st.Deleted(r.Context())
	if err != nil && len(msgs) == 0 {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Stats handles GET /stats
func (h *MessageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.st.Stats(r.Context())
	if err != nil && st == nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Migrate handles POST /migrate
func (h *MessageHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	report, err := h.st.MigrateLegacy(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
