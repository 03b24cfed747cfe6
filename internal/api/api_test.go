package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rcliao/memoya/internal/kv"
	"github.com/rcliao/memoya/internal/memo"
	"github.com/rcliao/memoya/internal/model"
	"github.com/rcliao/memoya/internal/room"
	"github.com/rcliao/memoya/internal/store"
)

var feb2025 = time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, token string) (*httptest.Server, *store.Partitioned) {
	t.Helper()
	return newTestServerOver(t, kv.NewMemory(), token)
}

func newTestServerOver(t *testing.T, substrate kv.Store, token string) (*httptest.Server, *store.Partitioned) {
	t.Helper()
	logger := log.New(io.Discard)
	now := func() time.Time { return feb2025 }
	st := store.New(substrate, store.Options{Location: time.UTC, Now: now, Logger: logger})
	exec := memo.NewExecutor(memo.NewRepo(substrate, logger, now), time.UTC, logger)
	rooms := room.NewManager(substrate, logger, now)
	srv := httptest.NewServer(NewRouter(st, exec, rooms, token, logger))
	t.Cleanup(srv.Close)
	return srv, st
}

// keyListFailure fails key enumeration and nothing else.
type keyListFailure struct {
	*kv.Memory
}

func (keyListFailure) AllKeys(context.Context) ([]string, error) {
	return nil, errors.New("keys unavailable")
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "secret")
	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t, "secret")
	if resp := do(t, http.MethodGet, srv.URL+"/partitions", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/partitions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", resp.StatusCode)
	}

	for _, header := range []string{"Bearer secreT", "Bearer secret2", "secret", "Basic secret"} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/partitions", nil)
		req.Header.Set("Authorization", header)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}

func TestMessageLifecycle(t *testing.T) {
	srv, st := newTestServer(t, "")

	resp := do(t, http.MethodPost, srv.URL+"/messages", `{"text":"hello","timestamp":"2025-01-20T10:00:00Z"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created model.Message
	decode(t, resp, &created)
	if created.ID == "" || created.Type != model.TypeUser {
		t.Fatalf("unexpected message %+v", created)
	}

	resp = do(t, http.MethodPatch, srv.URL+"/messages/"+created.ID, `{"isFavorite":true}`)
	var res map[string]string
	decode(t, resp, &res)
	if resp.StatusCode != http.StatusOK || res["outcome"] != "applied" || res["month"] != "2025-01" {
		t.Errorf("unexpected update %d %v", resp.StatusCode, res)
	}

	if resp := do(t, http.MethodDelete, srv.URL+"/messages/"+created.ID, ""); resp.StatusCode != http.StatusOK {
		t.Errorf("soft delete: %d", resp.StatusCode)
	}
	var trash []model.Message
	decode(t, do(t, http.MethodGet, srv.URL+"/trash", ""), &trash)
	if len(trash) != 1 || !trash[0].IsFavorite {
		t.Errorf("expected one favorite in trash, got %+v", trash)
	}

	do(t, http.MethodPost, srv.URL+"/messages/"+created.ID+"/restore", "")
	if resp := do(t, http.MethodDelete, srv.URL+"/messages/"+created.ID+"/purge", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("purge: %d", resp.StatusCode)
	}
	if _, r, _ := st.Get(t.Context(), created.ID); r.Found() {
		t.Error("purged message still present")
	}
	if resp := do(t, http.MethodDelete, srv.URL+"/messages/"+created.ID, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after purge, got %d", resp.StatusCode)
	}
}

func TestListAndPartitions(t *testing.T) {
	srv, st := newTestServer(t, "")
	ctx := t.Context()
	st.Append(ctx, model.Message{ID: "a1", Text: "jan", Timestamp: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)})
	st.Append(ctx, model.Message{ID: "a2", Text: "feb", Timestamp: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)})

	var list listResponse
	decode(t, do(t, http.MethodGet, srv.URL+"/messages?months=2", ""), &list)
	if len(list.Messages) != 2 || list.Messages[0].ID != "a1" || list.Messages[1].ID != "a2" {
		t.Errorf("unexpected list %+v", list.Messages)
	}

	var months []string
	decode(t, do(t, http.MethodGet, srv.URL+"/partitions", ""), &months)
	if len(months) != 2 || months[0] != "2025-02" || months[1] != "2025-01" {
		t.Errorf("unexpected partitions %v", months)
	}

	if resp := do(t, http.MethodGet, srv.URL+"/messages?months=zero", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListWarnsWhenKeysUnavailable(t *testing.T) {
	mem := kv.NewMemory()
	srv, st := newTestServerOver(t, keyListFailure{mem}, "")
	st.Append(t.Context(), model.Message{ID: "a1", Text: "feb", Timestamp: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)})

	resp := do(t, http.MethodGet, srv.URL+"/messages", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list listResponse
	decode(t, resp, &list)
	if len(list.Messages) != 1 || list.HasMore {
		t.Errorf("unexpected list %+v", list)
	}
	if !strings.Contains(list.Warning, "keys unavailable") {
		t.Errorf("expected the key listing failure in the warning, got %q", list.Warning)
	}
}

func TestListAnnotatesMemoStatus(t *testing.T) {
	srv, st := newTestServer(t, "")
	ctx := t.Context()
	at := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
	st.Append(ctx, model.Message{ID: "rec", Text: "buy milk", Type: model.TypeRecord, Timestamp: at})
	st.Append(ctx, model.Message{ID: "u1", Text: "hi", Type: model.TypeUser, Timestamp: at.Add(time.Minute)})

	statusOf := func(url string) map[string]model.State {
		t.Helper()
		var list listResponse
		decode(t, do(t, http.MethodGet, url, ""), &list)
		out := map[string]model.State{}
		for _, m := range list.Messages {
			out[m.ID] = m.MemoStatus
		}
		return out
	}

	// No memo with that id exists yet.
	if got := statusOf(srv.URL + "/messages?room=r1")["rec"]; got != model.StatePermanentlyDeleted {
		t.Errorf("expected permanently deleted, got %q", got)
	}

	var saved struct {
		Data model.Memo `json:"data"`
	}
	decode(t, do(t, http.MethodPost, srv.URL+"/actions/approve",
		`{"tool":"save_memo","room_id":"r1","args":{"content":"buy milk"}}`), &saved)
	if saved.Data.ID == "" {
		t.Fatalf("expected a saved memo, got %+v", saved)
	}
	st.Append(ctx, model.Message{ID: saved.Data.ID, Text: "buy milk", Type: model.TypeRecord, Timestamp: at.Add(2 * time.Minute)})

	got := statusOf(srv.URL + "/messages?room=r1")
	if got[saved.Data.ID] != model.StateActive || got["u1"] != "" {
		t.Errorf("unexpected statuses %v", got)
	}
	if other := statusOf(srv.URL + "/messages"); other[saved.Data.ID] != model.StatePermanentlyDeleted {
		t.Errorf("expected the default room not to know r1 memos, got %v", other)
	}

	var one model.Message
	decode(t, do(t, http.MethodGet, srv.URL+"/messages/"+saved.Data.ID+"?room=r1", ""), &one)
	if one.MemoStatus != model.StateActive {
		t.Errorf("expected active on single get, got %q", one.MemoStatus)
	}
}

func TestCreateRejectsFutureMonth(t *testing.T) {
	srv, _ := newTestServer(t, "")
	resp := do(t, http.MethodPost, srv.URL+"/messages", `{"text":"later","timestamp":"2025-03-02T00:00:00Z"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateValidation(t *testing.T) {
	srv, _ := newTestServer(t, "")
	for _, body := range []string{`{"text":""}`, `{"text":"x","type":"bogus"}`, `{"nope":1}`} {
		if resp := do(t, http.MethodPost, srv.URL+"/messages", body); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestToolsAndApprove(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := do(t, http.MethodPost, srv.URL+"/tools/save_memo?room=r1", `{"content":"call the dentist"}`)
	var res memo.Result
	decode(t, resp, &res)
	if !res.RequiresApproval || res.PendingAction == nil {
		t.Fatalf("expected pending action, got %+v", res)
	}

	body, _ := json.Marshal(res.PendingAction)
	resp = do(t, http.MethodPost, srv.URL+"/actions/approve", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, srv.URL+"/tools/search_memos?room=r1", `{"keyword":"dentist"}`)
	var found struct {
		Success bool `json:"success"`
		Data    []struct {
			Content string `json:"content"`
		} `json:"data"`
	}
	decode(t, resp, &found)
	if !found.Success || len(found.Data) != 1 {
		t.Errorf("expected the approved memo, got %+v", found)
	}

	if resp := do(t, http.MethodPost, srv.URL+"/tools/nope", ""); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown tool, got %d", resp.StatusCode)
	}
}
