package tenant

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/noah-isme/gym-billing/internal/common"
)

type ctxKey struct{}

// Labels that name the platform itself rather than a gym.
var reservedSubdomains = map[string]struct{}{
	"www": {},
	"api": {},
	"app": {},
}

// Resolver finds the gym a request belongs to. The header wins over the
// subdomain of RootDomain, and DefaultTenant is used when neither is present.
type Resolver struct {
	HeaderName    string
	RootDomain    string
	DefaultTenant string
}

// NewResolver normalises its arguments. An empty headerName means X-Tenant-ID.
func NewResolver(headerName, rootDomain, defaultTenant string) *Resolver {
	if headerName = strings.TrimSpace(headerName); headerName == "" {
		headerName = "X-Tenant-ID"
	}
	return &Resolver{
		HeaderName:    headerName,
		RootDomain:    strings.Trim(strings.ToLower(strings.TrimSpace(rootDomain)), "."),
		DefaultTenant: strings.TrimSpace(defaultTenant),
	}
}

// Middleware stores the resolved tenant on the request context. Requests
// without a tenant pass through untouched; RequireTenant guards the routes
// that need one.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := r.Resolve(req)
		if id == "" {
			id = r.DefaultTenant
		}
		if id != "" {
			req = req.WithContext(WithTenant(req.Context(), id))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve returns the tenant named by the request, or "" when it names none.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if id := strings.TrimSpace(req.Header.Get(r.HeaderName)); id != "" {
		return id
	}
	return r.fromHost(req.Host)
}

func (r *Resolver) fromHost(hostport string) string {
	host := strings.ToLower(strings.TrimSpace(hostport))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}

	if r.RootDomain != "" {
		rest, ok := strings.CutSuffix(host, "."+r.RootDomain)
		if !ok {
			return ""
		}
		host = rest
	}

	label, _, _ := strings.Cut(host, ".")
	if _, reserved := reservedSubdomains[label]; reserved {
		return ""
	}
	return label
}

// WithTenant stores the tenant identifier inside the context.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, strings.TrimSpace(tenantID))
}

// From extracts the tenant identifier from the context if available.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id, id != ""
}

// RequireTenant rejects requests that reach tenant scoped routes without a
// tenant whose identifier parses as a UUID.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := UUIDFrom(r.Context()); err != nil {
			common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", err.Error(), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
