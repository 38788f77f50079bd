package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"jobverse/internal/auth"
	"jobverse/internal/config"
	"jobverse/internal/database/databasetest"
	"jobverse/internal/storage"
)

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string
	prefixes []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{Key: objectName}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://cdn.example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

func (s *fakeStorage) DeletePrefix(_ context.Context, prefix string) error {
	s.prefixes = append(s.prefixes, prefix)
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(f.tasks)), Type: task.Type()}, nil
}

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	storage  *fakeStorage
	enqueuer *fakeEnqueuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		API: config.APIConfig{Env: "development", MaxUploadBytes: 1 << 20},
		Auth: config.AuthConfig{
			SecretKey: "test-secret",
			TokenTTL:  24 * time.Hour,
		},
	}
	authService, err := auth.NewAuthService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	env := &testEnv{
		db:       databasetest.Open(t),
		storage:  newFakeStorage(),
		enqueuer: &fakeEnqueuer{},
	}
	router, err := NewRouter(Dependencies{
		Config:      cfg,
		DB:          env.db,
		Logger:      testLogger(),
		AuthService: authService,
		Uploader:    storage.NewUploader(env.storage, nil, cfg.API.MaxUploadBytes),
		Signer:      env.storage,
		Objects:     env.storage,
		Enqueuer:    env.enqueuer,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	env.router = router
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doMultipart(t *testing.T, method, path string, fields map[string]string, files map[string]string, token string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte("content of " + filename)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, fullname, email, role string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/user/register", map[string]any{
		"fullname":    fullname,
		"email":       email,
		"phoneNumber": "+1 555 0100",
		"password":    "s3cret-pass",
		"role":        role,
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, w.Code, w.Body.String())
	}
}

func (e *testEnv) login(t *testing.T, email, role string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/user/login", map[string]any{
		"email":    email,
		"password": "s3cret-pass",
		"role":     role,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, w.Code, w.Body.String())
	}
	token := sessionCookie(w)
	if token == nil {
		t.Fatalf("login %s: missing token cookie", email)
	}
	return token.Value
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" {
			return cookie
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func idOf(t *testing.T, body map[string]any, key string) uint {
	t.Helper()
	obj, ok := body[key].(map[string]any)
	if !ok {
		t.Fatalf("response has no %q object: %v", key, body)
	}
	id, ok := obj["_id"].(float64)
	if !ok {
		t.Fatalf("%q has no _id: %v", key, obj)
	}
	return uint(id)
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) map[string]any {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
	return decode(t, w)
}
