package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

type stubUserStore struct {
	user *model.User
	err  error
}

func (s *stubUserStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.user, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_MissingToken(t *testing.T) {
	a := NewAuthMiddleware("test-secret", &stubUserStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	rec := httptest.NewRecorder()

	a.Authenticate(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	a := NewAuthMiddleware("test-secret", &stubUserStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	a.Authenticate(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	issuer := NewAuthMiddleware("other-secret", &stubUserStore{})
	token, err := issuer.IssueToken(1)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	a := NewAuthMiddleware("test-secret", &stubUserStore{
		user: &model.User{ID: 1, IsActive: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	a.Authenticate(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	store := &stubUserStore{
		user: &model.User{ID: 42, Role: model.RoleUser, IsActive: true},
	}
	a := NewAuthMiddleware("test-secret", store)

	token, err := a.IssueToken(42)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	var got *model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	a.Authenticate(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got == nil || got.ID != 42 {
		t.Fatalf("user in context = %+v, want ID 42", got)
	}
}

func TestAuthenticate_DeactivatedUser(t *testing.T) {
	a := NewAuthMiddleware("test-secret", &stubUserStore{
		user: &model.User{ID: 42, IsActive: false},
	})

	token, err := a.IssueToken(42)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	a.Authenticate(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	a := NewAuthMiddleware("test-secret", &stubUserStore{
		err: repository.ErrUserNotFound,
	})

	token, err := a.IssueToken(42)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	a.Authenticate(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func requestWithUser(u *model.User) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	ctx := context.WithValue(req.Context(), userKey, u)
	return req.WithContext(ctx)
}

func TestRequireRole(t *testing.T) {
	a := NewAuthMiddleware("test-secret", &stubUserStore{})
	guard := a.RequireRole(model.RoleAdmin, model.RoleManager)

	tests := []struct {
		name string
		role model.Role
		want int
	}{
		{name: "admin allowed", role: model.RoleAdmin, want: http.StatusOK},
		{name: "manager allowed", role: model.RoleManager, want: http.StatusOK},
		{name: "user forbidden", role: model.RoleUser, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			guard(okHandler()).ServeHTTP(rec, requestWithUser(&model.User{ID: 1, Role: tt.role}))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireRole_NoUserInContext(t *testing.T) {
	a := NewAuthMiddleware("test-secret", &stubUserStore{})
	guard := a.RequireRole(model.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec := httptest.NewRecorder()

	guard(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequirePermission(t *testing.T) {
	a := NewAuthMiddleware("test-secret", &stubUserStore{})
	guard := a.RequirePermission("manage_products")

	tests := []struct {
		name string
		user *model.User
		want int
	}{
		{
			name: "admin bypasses permission check",
			user: &model.User{ID: 1, Role: model.RoleAdmin},
			want: http.StatusOK,
		},
		{
			name: "manager with permission",
			user: &model.User{ID: 2, Role: model.RoleManager, Permissions: []string{"manage_products"}},
			want: http.StatusOK,
		},
		{
			name: "manager without permission",
			user: &model.User{ID: 3, Role: model.RoleManager, Permissions: []string{"manage_orders"}},
			want: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			guard(okHandler()).ServeHTTP(rec, requestWithUser(tt.user))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
