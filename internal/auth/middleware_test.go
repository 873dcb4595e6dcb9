package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"
)

type fakeUsers struct {
	users map[int64]domain.User
}

func (f *fakeUsers) GetActiveByID(_ context.Context, id int64) (domain.User, error) {
	u, found := f.users[id]
	if !found || !u.IsActive {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func newTestRouter(tokens *TokenManager, users UserProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", RequireAuth(tokens, users), func(c *gin.Context) {
		id, _ := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "role": id.Role})
	})
	return r
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingToken(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	r := newTestRouter(tokens, &fakeUsers{})

	for _, header := range []string{"", "Bearer ", "NotBearer abc"} {
		if w := doRequest(r, header); w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	r := newTestRouter(tokens, &fakeUsers{})

	if w := doRequest(r, "Bearer not-a-token"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_DeactivatedUserRejected(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	u := domain.User{ID: 1, Username: "alice", Role: domain.RoleDeveloper, IsActive: true}
	users := &fakeUsers{users: map[int64]domain.User{1: u}}
	r := newTestRouter(tokens, users)

	tok, err := tokens.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if w := doRequest(r, "Bearer "+tok); w.Code != http.StatusOK {
		t.Fatalf("expected 200 while active, got %d", w.Code)
	}

	// Deactivation must invalidate the still-unexpired token on the very
	// next request.
	u.IsActive = false
	users.users[1] = u
	if w := doRequest(r, "Bearer "+tok); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after deactivation, got %d", w.Code)
	}
}

func TestRequireAuth_LiveRoleWins(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	u := domain.User{ID: 1, Username: "alice", Role: domain.RoleDeveloper, IsActive: true}
	users := &fakeUsers{users: map[int64]domain.User{1: u}}
	r := newTestRouter(tokens, users)

	tok, err := tokens.Issue(u) // token embeds "developer"
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Promote the user after issuance; the next request must see admin.
	u.Role = domain.RoleAdmin
	users.users[1] = u

	w := doRequest(r, "Bearer "+tok)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Role domain.Role `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Role != domain.RoleAdmin {
		t.Fatalf("expected live role admin, got %q", body.Role)
	}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set(contextKeyIdentity, domain.Identity{ID: 2, Role: domain.RoleDeveloper})
	}, RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}
}
