package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"fooddonation/internal/domain"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	srv := New(Options{BcryptCost: bcrypt.MinCost})
	return srv, srv.Handler()
}

func loginToken(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Token == "" {
		t.Fatalf("login body = %s", rec.Body.String())
	}
	return out.Token
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	srv, h := newTestServer(t)
	reg := domain.Registration{Name: "A", Email: "a@example.com", Password: "pw", Phone: "1", Address: "x"}
	if _, err := srv.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	body, _ := json.Marshal(reg)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var out map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out["error"] != "User already exists" {
		t.Fatalf("error = %q", out["error"])
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv, h := newTestServer(t)
	if _, err := srv.Register(domain.Registration{Name: "A", Email: "a@example.com", Password: "pw", Phone: "1", Address: "x"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	body, _ := json.Marshal(map[string]string{"email": "a@example.com", "password": "nope"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestFoodRoutesRequireBearer(t *testing.T) {
	_, h := newTestServer(t)
	for _, path := range []string{"/food", "/food/mydonatedfood", "/food/requests", "/food/approved-requests", "/food/myaccount"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/category", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/category status = %d, want 200", rec.Code)
	}
}

func TestDeleteByStrangerIsForbidden(t *testing.T) {
	srv, h := newTestServer(t)
	ownerID, _ := srv.Register(domain.Registration{Name: "Owner", Email: "o@example.com", Password: "pw", Phone: "1", Address: "x"})
	if _, err := srv.Register(domain.Registration{Name: "Other", Email: "x@example.com", Password: "pw", Phone: "2", Address: "y"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	id, err := srv.store.addDonation(ownerID, domain.Donation{FoodItem: "Rice", Images: []string{"uploads/a.jpg"}})
	if err != nil {
		t.Fatalf("addDonation: %v", err)
	}
	token := loginToken(t, h, "x@example.com", "pw")

	req := httptest.NewRequest(http.MethodDelete, "/food/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if _, ok := srv.store.get(id); !ok {
		t.Fatal("listing removed by a stranger")
	}
}

func TestHitsCountsRequests(t *testing.T) {
	srv, h := newTestServer(t)
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/category", nil))
	}
	if srv.Hits() != 3 {
		t.Fatalf("Hits = %d, want 3", srv.Hits())
	}
}
