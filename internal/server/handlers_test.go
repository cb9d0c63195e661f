package server_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjoyayroo/alphathreads/internal/auth"
	"github.com/jjoyayroo/alphathreads/internal/domain"
	"github.com/jjoyayroo/alphathreads/internal/infrastructure/blobstore"
	"github.com/jjoyayroo/alphathreads/internal/server"
	"github.com/jjoyayroo/alphathreads/internal/service"
)

type stubProvider struct {
	out   string
	err   error
	calls int
}

func (p *stubProvider) Generate(context.Context, string, map[string]any) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.out, nil
}

type memRepo struct {
	records   []domain.ImageRecord
	insertErr error
}

func (r *memRepo) Insert(_ context.Context, rec domain.ImageRecord) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *memRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.ImageRecord, error) {
	out := make([]domain.ImageRecord, 0)
	for _, rec := range r.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (r *memRepo) ExistsByOwnerAndName(_ context.Context, ownerID, fileName string) (bool, error) {
	for _, rec := range r.records {
		if rec.OwnerID == ownerID && rec.FileName == fileName {
			return true, nil
		}
	}
	return false, nil
}

type testEnv struct {
	handler  http.Handler
	repo     *memRepo
	provider *stubProvider
	sessions *auth.Manager
	blobs    *blobstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := &memRepo{}
	provider := &stubProvider{
		out: "data:image/webp;base64," + base64.StdEncoding.EncodeToString([]byte("webp bytes")),
	}
	blobs := blobstore.New(t.TempDir(), "http://localhost:8080/files")
	sessions := auth.NewManager("test-session-secret", 7*24*time.Hour)

	srv := server.New(server.Options{
		Log:           zerolog.Nop(),
		Sessions:      sessions,
		Verifier:      auth.NewTokenVerifier("test-idp-secret"),
		Events:        auth.NewEvents(),
		Gateway:       service.NewGenerationService(provider, zerolog.Nop()),
		Persister:     service.NewPersistenceService(repo, blobs, zerolog.Nop()),
		Gallery:       service.NewGalleryService(repo),
		Files:         blobs,
		PublicBaseURL: "http://localhost:8080",
	})

	return &testEnv{
		handler:  srv.Handler(),
		repo:     repo,
		provider: provider,
		sessions: sessions,
		blobs:    blobs,
	}
}

func (e *testEnv) request(t *testing.T, method, path, body, userID string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		token, err := e.sessions.Issue(userID, "")
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestGenerateScenario(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "POST", "/api/generate",
		`{"prompt": "a red fox in snow", "model": "flux"}`, "U1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Output string             `json:"output"`
		Image  domain.ImageRecord `json:"image"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Output)

	require.Len(t, env.repo.records, 1)
	rec := env.repo.records[0]
	assert.Equal(t, "U1", rec.OwnerID)
	assert.Equal(t, "flux", rec.Model)
	assert.Equal(t, "a red fox in snow", rec.Prompt)
	assert.NotEmpty(t, rec.StorageURL)
	assert.Equal(t, rec.StorageURL, resp.Output)
}

func TestGenerateTrimsPrompt(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "POST", "/api/generate",
		`{"prompt": "  a red fox in snow\n", "model": "flux"}`, "U1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, env.repo.records, 1)
	assert.Equal(t, "a red fox in snow", env.repo.records[0].Prompt,
		"stored prompt matches the text sent to the model")
}

func TestGenerateUnknownModel(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "POST", "/api/generate",
		`{"prompt": "a red fox in snow", "model": "nonexistent"}`, "U1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown model")
	assert.Empty(t, env.repo.records, "no record may be created for invalid input")
	assert.Zero(t, env.provider.calls, "provider must not be called for invalid input")
}

func TestGenerateEmptyPrompt(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "POST", "/api/generate",
		`{"prompt": "   ", "model": "flux"}`, "U1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.provider.calls)
}

func TestGenerateMissingCredentialIsOpaque(t *testing.T) {
	env := newTestEnv(t)
	env.provider.err = domain.ErrMissingCredential

	w := env.request(t, "POST", "/api/generate",
		`{"prompt": "a red fox in snow", "model": "flux"}`, "U1", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "server configuration error")
	assert.NotContains(t, w.Body.String(), "credential")
}

func TestGeneratePersistFailure(t *testing.T) {
	env := newTestEnv(t)
	env.repo.insertErr = errors.New("db down")

	w := env.request(t, "POST", "/api/generate",
		`{"prompt": "a red fox in snow", "model": "flux"}`, "U1", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, env.repo.records)

	// Compensation removed the uploaded blob again.
	blobs, err := env.blobs.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestGenerateUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "POST", "/api/generate",
		`{"prompt": "a red fox in snow", "model": "flux"}`, "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, env.provider.calls, "refusal must happen before any side effect")
	assert.Empty(t, env.repo.records)
}

func TestBrowserRedirects(t *testing.T) {
	env := newTestEnv(t)

	// Unauthenticated browser request for a protected page.
	w := env.request(t, "GET", "/", "", "", map[string]string{"Accept": "text/html"})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/signin", w.Header().Get("Location"))

	// Authenticated browser visiting the sign-in page.
	w = env.request(t, "GET", "/signin", "", "U1", map[string]string{"Accept": "text/html"})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// Unauthenticated sign-in page renders.
	w = env.request(t, "GET", "/signin", "", "", map[string]string{"Accept": "text/html"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListImagesOrderingAndIsolation(t *testing.T) {
	env := newTestEnv(t)
	env.repo.records = []domain.ImageRecord{
		{ID: "a", OwnerID: "U1", CreatedAt: 100},
		{ID: "b", OwnerID: "U2", CreatedAt: 300},
		{ID: "c", OwnerID: "U1", CreatedAt: 200},
	}

	w := env.request(t, "GET", "/api/images", "", "U1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Images []domain.ImageRecord `json:"images"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Images, 2)

	assert.Equal(t, "c", resp.Images[0].ID, "timestamp-200 record comes first")
	assert.Equal(t, "a", resp.Images[1].ID)
	for _, img := range resp.Images {
		assert.Equal(t, "U1", img.OwnerID)
	}
}

func TestListImagesEmpty(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "GET", "/api/images", "", "U1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"images": []}`, w.Body.String())
}

func TestSignInFlow(t *testing.T) {
	env := newTestEnv(t)

	claims := jwt.MapClaims{"sub": "U1", "email": "u1@example.com", "exp": time.Now().Add(time.Minute).Unix()}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-idp-secret"))
	require.NoError(t, err)

	w := env.request(t, "POST", "/api/auth/session", `{"token": "`+assertion+`"}`, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie must be set")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)

	session, err := env.sessions.Verify(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "U1", session.UserID)
}

func TestSignInBadAssertion(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "POST", "/api/auth/session", `{"token": "garbage"}`, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignOutClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "DELETE", "/api/auth/session", "", "U1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestFileServingIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.blobs.Put(context.Background(), "U1", "100-x.webp", []byte("payload"))
	require.NoError(t, err)

	w := env.request(t, "GET", "/files/U1/100-x.webp", "", "U1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payload", w.Body.String())

	w = env.request(t, "GET", "/files/U1/100-x.webp", "", "U2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "foreign files look like missing files")

	w = env.request(t, "GET", "/files/U1/100-x.webp", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "GET", "/healthz", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
