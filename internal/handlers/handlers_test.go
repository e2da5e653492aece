package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardioscan-server/internal/auth"
	"cardioscan-server/internal/config"
	"cardioscan-server/internal/models"
	"cardioscan-server/internal/routes"
	"cardioscan-server/internal/service"
	"cardioscan-server/internal/storage"
	"cardioscan-server/internal/store"
)

type stubClassifier struct{}

func (stubClassifier) Classify(ctx context.Context, audio []byte) (string, []byte, error) {
	return "Present", []byte("png bytes"), nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:            "test-secret",
		JWTExpirationMinutes: 5,
	}

	db, err := models.InitDB(models.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)

	artifacts, err := storage.NewArtifactManager(t.TempDir())
	require.NoError(t, err)

	credentials := store.NewCredentialStore(db)
	svc := service.NewRecordService(
		auth.NewAuthorizer(credentials),
		credentials,
		store.NewRecordStore(db),
		artifacts,
		stubClassifier{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	router := gin.New()
	routes.SetupRoutes(router, svc, cfg)
	return router
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func register(t *testing.T, router *gin.Engine, username, password, role string) {
	t.Helper()
	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "",
		gin.H{"username": username, "password": password, "role": role})
	require.Equal(t, http.StatusCreated, w.Code)
}

func login(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func upload(t *testing.T, router *gin.Engine, token, patientName string, audio []byte) (uint, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "recording.wav")
	require.NoError(t, err)
	_, err = fw.Write(audio)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("patient_name", patientName))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var res struct {
		ID    uint   `json:"id"`
		Label string `json:"inference"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.ID, res.Label
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "",
		gin.H{"username": "alice", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "password below minimum length")

	w, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "",
		gin.H{"username": "alice", "password": "secret1secret1", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown role")
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice", "secret1secret1", "patient")

	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "",
		gin.H{"username": "alice", "password": "secret1secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginFailures(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice", "secret1secret1", "patient")

	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"username": "nobody", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "unknown user and bad password look identical")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/api/v1/records", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/records", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice", "secret1secret1", "patient")
	token := login(t, router, "alice", "secret1secret1")

	id, label := upload(t, router, token, "Alice P.", []byte("wav bytes"))
	assert.Equal(t, "Present", label)

	// History contains exactly the uploaded record.
	w, env := doJSON(t, router, http.MethodGet, "/api/v1/records", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []struct {
		ID          uint   `json:"id"`
		PatientName string `json:"patientName"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].ID)
	assert.Equal(t, "Alice P.", history[0].PatientName)

	// Detail view.
	w, env = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/records/%d", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		PatientName string `json:"patientName"`
		Inference   string `json:"inference"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Alice P.", detail.PatientName)
	assert.Equal(t, "Present", detail.Inference)

	// Artifacts stream back with the right content types.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/records/%d/audio", id), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, "wav bytes", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/records/%d/image", id), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	// Delete, then everything about the record is gone.
	w, _ = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/records/%d", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/records/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCrossRoleAccessOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice", "secret1secret1", "patient")
	register(t, router, "bob", "hunter2hunter2", "doctor")
	aliceToken := login(t, router, "alice", "secret1secret1")
	bobToken := login(t, router, "bob", "hunter2hunter2")

	id, _ := upload(t, router, aliceToken, "Alice P.", []byte("wav bytes"))

	// Doctor override on reads.
	w, _ := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/records/%d", id), bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// But no annotation of records he does not own.
	w, _ = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/records/%d/notes", id), bobToken,
		gin.H{"notes": "looks fine"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// And no deletion either.
	w, _ = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/records/%d", id), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Bob's own history does not list alice's record.
	w, env := doJSON(t, router, http.MethodGet, "/api/v1/records", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Empty(t, history)
}

func TestUploadWithoutFile(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice", "secret1secret1", "patient")
	token := login(t, router, "alice", "secret1secret1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("patient_name", "Alice P."))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
