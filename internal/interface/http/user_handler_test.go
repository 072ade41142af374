package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	userapp "github.com/campuskit/users-service/internal/application"
	"github.com/campuskit/users-service/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validation.Init()
	os.Exit(m.Run())
}

func newTestRouter() (*gin.Engine, *userapp.FakeUserRepository) {
	fake := userapp.NewFakeUserRepository()
	svc := userapp.NewService(fake, nil, nil, "", nil)
	h := NewUserHandler(svc, nil)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/users", h.List)
	api.GET("/users/filter", h.Filter)
	api.GET("/users/search", h.Search)
	api.GET("/users/:id", h.GetByID)
	api.POST("/users", h.Create)
	api.PUT("/users/:id", h.Update)
	api.DELETE("/users/:id", h.Delete)
	api.DELETE("/users", h.Clear)
	return r, fake
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, w.Body.String())
	}
	return env
}

type userPayload struct {
	ID           int64  `json:"id,omitempty"`
	LoginName    string `json:"login_name"`
	EmailAddress string `json:"email_address"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

func validPayload() userPayload {
	return userPayload{
		LoginName:    "alice",
		EmailAddress: "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Archer",
	}
}

func createUser(t *testing.T, r *gin.Engine, p userPayload) int64 {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/users", p)
	if w.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	var created userPayload
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created user: %v", err)
	}
	return created.ID
}

func TestCreateUser(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/users", validPayload())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	var created userPayload
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected an assigned id in the response")
	}
	loc := w.Header().Get("Location")
	want := fmt.Sprintf("/api/users/%d", created.ID)
	if loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*userPayload)
		field   string
	}{
		{"invalid email", func(p *userPayload) { p.EmailAddress = "not-an-email" }, "email_address"},
		{"missing login name", func(p *userPayload) { p.LoginName = "" }, "login_name"},
		{"login name with spaces", func(p *userPayload) { p.LoginName = "alice smith" }, "login_name"},
		{"first name too long", func(p *userPayload) { p.FirstName = strings.Repeat("x", 256) }, "first_name"},
		{"missing last name", func(p *userPayload) { p.LastName = "" }, "last_name"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, fake := newTestRouter()
			p := validPayload()
			test.mutate(&p)

			w := doJSON(t, r, http.MethodPost, "/api/users", p)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body: %s)", w.Code, w.Body.String())
			}
			env := decodeEnvelope(t, w)
			var details map[string]string
			if err := json.Unmarshal(env.Error, &details); err != nil {
				t.Fatalf("decode error details: %v", err)
			}
			if _, ok := details[test.field]; !ok {
				t.Errorf("error details %v missing field %q", details, test.field)
			}
			if fake.UpsertCalls != 0 {
				t.Errorf("validation failure reached the store (%d upsert calls)", fake.UpsertCalls)
			}
		})
	}
}

func TestCreateUser_DuplicateLoginName(t *testing.T) {
	r, _ := newTestRouter()
	createUser(t, r, validPayload())

	second := validPayload()
	second.EmailAddress = "alice2@example.com"
	w := doJSON(t, r, http.MethodPost, "/api/users", second)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body: %s)", w.Code, w.Body.String())
	}
}

func TestGetUserByID(t *testing.T) {
	r, _ := newTestRouter()
	id := createUser(t, r, validPayload())

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/users/%d", id+100), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/users/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for non-numeric id", w.Code)
	}
}

func TestFilterUserByName(t *testing.T) {
	r, _ := newTestRouter()
	id := createUser(t, r, validPayload())

	w := doJSON(t, r, http.MethodGet, "/api/users/filter?name=alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	var got userPayload
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.ID != id {
		t.Errorf("filter returned id %d, want %d", got.ID, id)
	}

	w = doJSON(t, r, http.MethodGet, "/api/users/filter?name=nobody", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/users/filter", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing name", w.Code)
	}
}

func TestUpdateUser(t *testing.T) {
	r, _ := newTestRouter()
	id := createUser(t, r, validPayload())

	p := validPayload()
	p.ID = id
	p.FirstName = "Alicia"
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/users/%d", id), p)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	var got userPayload
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.FirstName != "Alicia" {
		t.Errorf("first_name = %q, want %q", got.FirstName, "Alicia")
	}
}

// The path/body identity check is a boundary rule: a mismatch is rejected
// with 400 before the service is invoked.
func TestUpdateUser_PathBodyMismatch(t *testing.T) {
	r, fake := newTestRouter()
	id := createUser(t, r, validPayload())
	callsAfterCreate := fake.UpsertCalls

	p := validPayload()
	p.ID = id
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/users/%d", id+1), p)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body: %s)", w.Code, w.Body.String())
	}
	if fake.UpsertCalls != callsAfterCreate {
		t.Error("mismatched update reached the service")
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	r, _ := newTestRouter()

	p := validPayload()
	p.ID = 99
	w := doJSON(t, r, http.MethodPut, "/api/users/99", p)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body: %s)", w.Code, w.Body.String())
	}
}

func TestDeleteUser(t *testing.T) {
	r, _ := newTestRouter()
	id := createUser(t, r, validPayload())

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("first delete status = %d, want 204", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", w.Code)
	}
}

func TestClearUsers(t *testing.T) {
	r, _ := newTestRouter()
	createUser(t, r, validPayload())
	second := validPayload()
	second.LoginName = "bob"
	second.EmailAddress = "bob@example.com"
	createUser(t, r, second)

	w := doJSON(t, r, http.MethodDelete, "/api/users", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	env := decodeEnvelope(t, w)
	var users []userPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &users); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	if len(users) != 0 {
		t.Errorf("list after clear returned %d users, want 0", len(users))
	}
}

// Search degrades to an empty result when no Elasticsearch index is wired.
func TestSearchUsers_NoIndex(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/api/users/search?q=alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/users/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing q", w.Code)
	}
}
