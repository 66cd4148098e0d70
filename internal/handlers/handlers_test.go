package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskcrew-dev/taskcrew/db"
	"github.com/taskcrew-dev/taskcrew/internal/auth"
	"github.com/taskcrew-dev/taskcrew/internal/config"
	"github.com/taskcrew-dev/taskcrew/internal/router"
	"github.com/taskcrew-dev/taskcrew/internal/storage"
)

type env struct {
	handler http.Handler
	store   *storage.Store
}

func setup(t *testing.T) *env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})

	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	db.DB = gdb

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cfg := &config.Config{
		Port:           "0",
		JWTSecret:      "test-secret",
		TokenLifetime:  time.Hour,
		BcryptCost:     bcrypt.MinCost,
		AllowedOrigins: []string{"http://localhost:3000"},
		UploadDir:      t.TempDir(),
		UploadMaxBytes: 1 << 20,
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenLifetime)

	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	store, err := storage.NewStore(cfg.UploadDir, cfg.UploadMaxBytes)

	if err != nil {
		t.Fatalf("failed to create upload store: %v", err)
	}

	return &env{
		handler: router.New(cfg, tokens, store),
		store:   store,
	}
}

func (e *env) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	return w
}

func (e *env) upload(t *testing.T, path, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

type userPayload struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

// register creates a user through the API and returns its id and token.
func (e *env) register(t *testing.T, name, email string) (uint, string) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "password123",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, w.Code, w.Body.String())
	}

	var resp authResponse
	decode(t, w, &resp)

	return resp.User.ID, resp.Token
}

type teamPayload struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// createTeam makes a team through the API and returns it.
func (e *env) createTeam(t *testing.T, token, name string) teamPayload {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/teams", token, gin.H{"name": name})

	if w.Code != http.StatusCreated {
		t.Fatalf("create team %s: expected 201, got %d: %s", name, w.Code, w.Body.String())
	}

	var resp struct {
		Team teamPayload `json:"team"`
	}
	decode(t, w, &resp)

	return resp.Team
}

type taskPayload struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	Priority    string              `json:"priority"`
	TeamID      *uint               `json:"teamId"`
	UserID      *uint               `json:"userId"`
	AssigneeID  *uint               `json:"assigneeId"`
	CreatedBy   uint                `json:"createdBy"`
	Attachments []attachmentPayload `json:"attachments"`
}

type attachmentPayload struct {
	ID           uint   `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Path         string `json:"path"`
	TaskID       uint   `json:"taskId"`
	UploadedBy   uint   `json:"uploadedBy"`
}

// createTask posts a task and returns the response payload.
func (e *env) createTask(t *testing.T, token string, body gin.H) taskPayload {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/tasks", token, body)

	if w.Code != http.StatusCreated {
		t.Fatalf("create task: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Task taskPayload `json:"task"`
	}
	decode(t, w, &resp)

	return resp.Task
}

func taskPath(id uint) string {
	return fmt.Sprintf("/api/tasks/%d", id)
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}

func teamPath(id uint) string {
	return fmt.Sprintf("/api/teams/%d", id)
}
