package httpx

import (
	"log/slog"
	"net/http"

	"github.com/lodgeworks/lodge-api/internal/observability/statsd"
	"github.com/lodgeworks/lodge-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Lodges     *service.LodgeService
	Members    *service.MemberService
	Candidates *service.CandidateService
	Events     *service.EventService
	Posts      *service.PostService
	Auth       AuthServiceInterface

	CookieDomain string
	Metrics      statsd.Sink      // optional request timing sink
	Readiness    []ReadinessCheck // optional dependency probes behind /readyz
	Logger       *slog.Logger     // optional; slog.Default when nil
}

// NewRouter creates and configures the HTTP router. Every /api route sits
// behind OptionalAuth: the handlers derive a principal from whatever session
// is present and the guard turns its absence into a NO_TOKEN denial, so the
// wire behavior matches the legacy API even for unauthenticated calls.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	registerLodgeRoutes(mux, &LodgeHandlers{Svc: services.Lodges})
	registerMemberRoutes(mux, &MemberHandlers{Svc: services.Members})
	registerCandidateRoutes(mux, &CandidateHandlers{Svc: services.Candidates})
	registerEventRoutes(mux, &EventHandlers{Svc: services.Events})
	registerPostRoutes(mux, &PostHandlers{Svc: services.Posts})

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if len(services.Readiness) > 0 {
		mux.Handle("GET /readyz", readinessHandler(services.Readiness))
	}

	if services.Auth != nil {
		authHandlers := &AuthHandlers{
			Svc:          services.Auth,
			CookieDomain: services.CookieDomain,
			Logger:       services.Logger,
		}
		registerAuthRoutes(mux, authHandlers)
	}

	var handler http.Handler = mux
	if services.Auth != nil {
		handler = OptionalAuth(services.Auth)(handler)
	}
	handler = Metrics(services.Metrics)(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerLodgeRoutes(mux *http.ServeMux, h *LodgeHandlers) {
	mux.HandleFunc("POST /api/lodges", h.Create)
	mux.HandleFunc("GET /api/lodges", h.List)
	mux.HandleFunc("GET /api/lodges/{id}", h.Get)
	mux.HandleFunc("PUT /api/lodges/{id}", h.Update)
	mux.HandleFunc("DELETE /api/lodges/{id}", h.Delete)
}

func registerMemberRoutes(mux *http.ServeMux, h *MemberHandlers) {
	mux.HandleFunc("GET /api/members", h.List)
	mux.HandleFunc("GET /api/members/{id}", h.Get)
	mux.HandleFunc("PUT /api/members/{id}", h.Update)
	mux.HandleFunc("DELETE /api/members/{id}", h.Delete)
	mux.HandleFunc("POST /api/members/{id}/deactivate", h.Deactivate)
}

func registerCandidateRoutes(mux *http.ServeMux, h *CandidateHandlers) {
	mux.HandleFunc("POST /api/candidates", h.Create)
	mux.HandleFunc("GET /api/candidates", h.List)
	mux.HandleFunc("GET /api/candidates/{id}", h.Get)
	mux.HandleFunc("PUT /api/candidates/{id}", h.Update)
	mux.HandleFunc("DELETE /api/candidates/{id}", h.Delete)
}

func registerEventRoutes(mux *http.ServeMux, h *EventHandlers) {
	mux.HandleFunc("POST /api/events", h.Create)
	mux.HandleFunc("GET /api/events", h.List)
	mux.HandleFunc("GET /api/events/{id}", h.Get)
	mux.HandleFunc("PUT /api/events/{id}", h.Update)
	mux.HandleFunc("DELETE /api/events/{id}", h.Delete)
}

func registerPostRoutes(mux *http.ServeMux, h *PostHandlers) {
	mux.HandleFunc("POST /api/posts", h.Create)
	mux.HandleFunc("GET /api/posts", h.List)
	mux.HandleFunc("GET /api/posts/{id}", h.Get)
	mux.HandleFunc("PUT /api/posts/{id}", h.Update)
	mux.HandleFunc("DELETE /api/posts/{id}", h.Delete)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/me", h.Me)
}
