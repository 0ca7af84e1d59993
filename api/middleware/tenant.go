package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/tiredist/tiredist-backend/api/responses"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
)

// TenantInfo is the resolved storefront identity handed to downstream handlers.
type TenantInfo struct {
	ID   string
	Type string
	Slug string
}

// TenantDirectory resolves a request host to a tenant. Implemented by the
// tenants service; kept as a local interface so the middleware stays testable.
type TenantDirectory interface {
	ResolveHost(ctx context.Context, host string) (TenantInfo, error)
}

// TenantDirectoryFunc adapts a plain function to the TenantDirectory interface.
type TenantDirectoryFunc func(ctx context.Context, host string) (TenantInfo, error)

func (f TenantDirectoryFunc) ResolveHost(ctx context.Context, host string) (TenantInfo, error) {
	return f(ctx, host)
}

// ResolveTenant maps the request host to a tenant and stores it in the context.
// Unknown and inactive hosts both yield NOT_FOUND so probes cannot tell the
// difference.
func ResolveTenant(directory TenantDirectory, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := NormalizeHost(r.Host)
			if host == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found"))
				return
			}

			info, err := directory.ResolveHost(r.Context(), host)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithTenant(r.Context(), info.ID, info.Type, info.Slug)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, info.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NormalizeHost strips the port and lowercases the host header value.
func NormalizeHost(raw string) string {
	host := strings.TrimSpace(strings.ToLower(raw))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
