package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
)

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"Shop.Tiredist.Com":      "shop.tiredist.com",
		"tiredist.com:8080":      "tiredist.com",
		"tiredist.com.":          "tiredist.com",
		" neumaticos-silva.pt ":  "neumaticos-silva.pt",
		"":                       "",
	}
	for in, want := range cases {
		if got := NormalizeHost(in); got != want {
			t.Fatalf("NormalizeHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveTenantSeedsContext(t *testing.T) {
	directory := TenantDirectoryFunc(func(ctx context.Context, host string) (TenantInfo, error) {
		if host != "silva.tiredist.com" {
			t.Fatalf("unexpected host %q", host)
		}
		return TenantInfo{ID: "t-1", Type: "RESELLER", Slug: "silva"}, nil
	})

	var gotID, gotType, gotSlug string
	handler := ResolveTenant(directory, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = TenantIDFromContext(r.Context())
		gotType = TenantTypeFromContext(r.Context())
		gotSlug = TenantSlugFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "http://silva.tiredist.com:8080/api/storefront/catalog", nil)
	req.Host = "silva.tiredist.com:8080"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotID != "t-1" || gotType != "RESELLER" || gotSlug != "silva" {
		t.Fatalf("tenant context not seeded: %q %q %q", gotID, gotType, gotSlug)
	}
}

func TestResolveTenantUnknownHostIs404(t *testing.T) {
	directory := TenantDirectoryFunc(func(ctx context.Context, host string) (TenantInfo, error) {
		return TenantInfo{}, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
	})

	handler := ResolveTenant(directory, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://ghost.tiredist.com/api/storefront/catalog", nil)
	req.Host = "ghost.tiredist.com"
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
