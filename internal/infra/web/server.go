package web

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"intake-review/internal/config"
	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/adapter"
	"intake-review/internal/infra/logging"
	"intake-review/internal/infra/metrics"
	"intake-review/internal/usecase"
)

const loginPath = "/login"

type Server struct {
	sessions usecase.SessionUseCase
	profiles usecase.ProfileUseCase
	codes    usecase.RefCodeUseCase
	apps     usecase.ApplicationUseCase

	auth    *AuthManager
	limiter adapter.RateLimiter
	limits  config.RateLimitConfig
	proxies []netip.Prefix
	timeout time.Duration
	log     *zerolog.Logger
}

func NewServer(
	sessions usecase.SessionUseCase,
	profiles usecase.ProfileUseCase,
	codes usecase.RefCodeUseCase,
	apps usecase.ApplicationUseCase,
	auth *AuthManager,
	limiter adapter.RateLimiter,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	// Parsed once more here; config.Load has already rejected bad entries.
	proxies, err := cfg.Server.TrustedPrefixes()
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring server.trusted_proxies")
	}
	return &Server{
		sessions: sessions,
		profiles: profiles,
		codes:    codes,
		apps:     apps,
		auth:     auth,
		limiter:  limiter,
		limits:   cfg.RateLimit,
		proxies:  proxies,
		timeout:  cfg.Server.RequestTimeout,
		log:      logger,
	}
}

// Router builds the full HTTP surface: public routes plus the /admin perimeter.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.timeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Get(loginPath, s.handleLoginPage)
	r.With(s.throttle("login", s.limits.LoginsPerMinute)).Post(loginPath, s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(s.throttle("submission", s.limits.SubmissionsPerMinute)).Post("/applications", s.handleSubmit)
		r.Get("/reference-codes/{code}/validate", s.handleValidateCode)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.perimeter)
		r.Route("/api", func(r chi.Router) {
			r.Get("/me", s.handleMe)

			r.Get("/applications", s.handleListApplications)
			r.Get("/applications/{id}", s.handleGetApplication)
			r.Put("/applications/{id}/status", s.handleUpdateStatus)
			r.Post("/applications/{id}/read", s.handleMarkRead)
			r.Post("/applications/{id}/unread", s.handleMarkUnread)
			r.Delete("/applications/{id}", s.handleDeleteApplication)

			r.Get("/reference-codes", s.handleListCodes)
			r.Post("/reference-codes", s.handleCreateCode)
			r.Put("/reference-codes/{id}", s.handleUpdateCode)
			r.Delete("/reference-codes/{id}", s.handleDeleteCode)

			r.Get("/profiles", s.handleListProfiles)
			r.Post("/profiles", s.handleCreateProfile)
			r.Patch("/profiles/{id}", s.handleUpdateProfile)
			r.Delete("/profiles/{id}", s.handleDeleteProfile)
			r.Put("/profiles/{id}/active", s.handleSetActive)
			r.Put("/profiles/{id}/password", s.handleResetPassword)
		})
	})
	return r
}

type callerKey struct{}

func withCaller(ctx context.Context, c *model.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func callerFrom(ctx context.Context) *model.Caller {
	c, _ := ctx.Value(callerKey{}).(*model.Caller)
	return c
}

// perimeter admits only requests with a live session and resolves the caller afresh.
// Role sufficiency is decided by the use cases.
func (s *Server) perimeter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}

		caller, err := s.sessions.ResolveCaller(r.Context(), claims.Subject, claims.ID)
		if errors.Is(err, domain.ErrSessionExpired) {
			s.auth.Clear(w)
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		if err != nil {
			s.fail(w, r, err, "resolve session")
			return
		}

		ctx := logging.WithSessID(r.Context(), claims.ID)
		ctx = logging.WithProfileID(ctx, caller.ProfileID())
		next.ServeHTTP(w, r.WithContext(withCaller(ctx, caller)))
	})
}

// throttle applies a per-client fixed window. Limiter failures let the request through.
func (s *Server) throttle(scope string, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter == nil || perMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := s.limiter.Allow(r.Context(), scope+":"+clientIP(r, s.proxies), perMinute, time.Minute)
			if err != nil {
				l := logging.With(r.Context(), s.log)
				l.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.IncRateLimited(scope)
				w.Header().Set("Retry-After", "60")
				s.fail(w, r, domain.ErrRateLimited, scope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
