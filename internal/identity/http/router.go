package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tenancy/internal/identity/metrics"
	"github.com/aussiebroadwan/tenancy/internal/identity/service"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/pkg/httpx"
	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
	"github.com/aussiebroadwan/tenancy/pkg/jwtx"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

// Default per-key limits. Reads and writes are keyed by token subject,
// public endpoints by client IP.
var (
	PublicLimit = httpx.RateLimitConfig{Requests: 120, Window: time.Minute}
	ReadLimit   = httpx.RateLimitConfig{Requests: 300, Window: time.Minute, Burst: 60}
	WriteLimit  = httpx.RateLimitConfig{Requests: 60, Window: time.Minute, Burst: 20}
)

// Limits groups the rate limits applied by the router.
type Limits struct {
	Public     httpx.RateLimitConfig
	Read       httpx.RateLimitConfig
	Write      httpx.RateLimitConfig
	TrustProxy bool
}

// DefaultLimits returns PublicLimit, ReadLimit and WriteLimit.
func DefaultLimits() Limits {
	return Limits{Public: PublicLimit, Read: ReadLimit, Write: WriteLimit}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	keys         *jwtx.KeySet // nil when tokens are verified with a shared secret
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics
	Limits       Limits

	store             store.Store
	UserService       *service.UserService
	WorkspaceService  *service.WorkspaceService
	MembershipService *service.MembershipService
	InvitationService *service.InvitationService
}

func NewRouter(
	verifier jwtx.Verifier,
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      m,
		logger:       logger,
		Limits:       DefaultLimits(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover,
		r.metrics.HTTPMiddleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSystem()
	r.registerUsers()
	r.registerWorkspaces()
	r.registerMembers()
	r.registerInvitations()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// reader and writer build the authenticated chain shared by every /v1 route.
func (r *Router) reader(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.Authenticate(r.verifier),
		httpx.RequireScope(identitysdk.ScopeRead, identitysdk.ScopeWrite),
		httpx.RateLimit(r.Limits.Read, httpx.SubjectKeyExtractor),
	)
}

func (r *Router) writer(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.Authenticate(r.verifier),
		httpx.RequireScope(identitysdk.ScopeWrite),
		httpx.RateLimit(r.Limits.Write, httpx.SubjectKeyExtractor),
	)
}

func (r *Router) registerSystem() {
	public := httpx.RateLimit(r.Limits.Public, httpx.IPKeyExtractor(r.Limits.TrustProxy))

	r.Mux.Handle("GET /livez", httpx.Chain(LivezHandler(r.startTime, r.buildVersion), public))
	r.Mux.Handle("GET /readyz", httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys), public))
	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}

func (r *Router) registerUsers() {
	h := &UserHandler{UserService: r.UserService}

	r.Mux.Handle("POST /v1/users/me", r.writer(h.Register))
	r.Mux.Handle("GET /v1/users/me", r.reader(h.Get))
	r.Mux.Handle("PATCH /v1/users/me", r.writer(h.Update))
	r.Mux.Handle("DELETE /v1/users/me", r.writer(h.Delete))
}

func (r *Router) registerWorkspaces() {
	h := &WorkspaceHandler{WorkspaceService: r.WorkspaceService}

	r.Mux.Handle("POST /v1/workspaces", r.writer(h.Create))
	r.Mux.Handle("GET /v1/workspaces", r.reader(h.List))
	r.Mux.Handle("GET /v1/workspaces/{id}", r.reader(h.Get))
	r.Mux.Handle("PATCH /v1/workspaces/{id}", r.writer(h.Rename))
	r.Mux.Handle("POST /v1/workspaces/{id}/deactivate", r.writer(h.Deactivate))
}

func (r *Router) registerMembers() {
	h := &MemberHandler{MembershipService: r.MembershipService}

	r.Mux.Handle("GET /v1/workspaces/{id}/members", r.reader(h.List))
	r.Mux.Handle("DELETE /v1/workspaces/{id}/members/me", r.writer(h.Leave))
	r.Mux.Handle("PATCH /v1/workspaces/{id}/members/{userID}", r.writer(h.ChangeRole))
	r.Mux.Handle("POST /v1/workspaces/{id}/members/{userID}/activate", r.writer(h.Activate))
	r.Mux.Handle("POST /v1/workspaces/{id}/members/{userID}/deactivate", r.writer(h.Deactivate))
}

func (r *Router) registerInvitations() {
	h := &InvitationHandler{InvitationService: r.InvitationService}

	r.Mux.Handle("POST /v1/workspaces/{id}/invitations", r.writer(h.Invite))
	r.Mux.Handle("GET /v1/workspaces/{id}/invitations", r.reader(h.ListForWorkspace))
	r.Mux.Handle("GET /v1/invitations", r.reader(h.ListMine))
	r.Mux.Handle("POST /v1/invitations/accept", r.writer(h.Accept))
	r.Mux.Handle("POST /v1/invitations/{id}/reject", r.writer(h.Reject))
}
