package routes

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/account-auth/app"
	"github.com/upb/account-auth/handlers"
	"github.com/upb/account-auth/middleware"
	"github.com/upb/account-auth/utils"
)

// RouteInfo describes one registered route for the debug listing
type RouteInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Middlewares int    `json:"middlewares"`
}

// PathMethods lists the methods registered for one path
type PathMethods struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.HealthChecks, deps.Logger)
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Logger)
	userHandler := handlers.NewUserHandler(deps.AccountService, deps.Logger)

	r.Get("/", healthHandler.HandleRoot)
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	r.Route("/auth/jwt", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.With(deps.RefreshGate.Require).Post("/refresh", authHandler.HandleRefresh)
		r.With(deps.AccessGate.Require).Get("/verify", authHandler.HandleVerify)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(deps.AccessGate.Require)
		r.Get("/protected-route-only-jwt", userHandler.HandleProtected)
		r.Delete("/me", userHandler.HandleDeleteMe)
	})

	if !deps.Config.IsProduction() {
		r.Get("/routes", func(w http.ResponseWriter, req *http.Request) {
			_ = utils.WriteJSON(w, http.StatusOK, ListRoutes(r))
		})
		r.Get("/methods", func(w http.ResponseWriter, req *http.Request) {
			_ = utils.WriteJSON(w, http.StatusOK, ListMethods(r))
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusNotFound, "endpoint not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}

// ListRoutes walks the router and returns its routes sorted by path and method
func ListRoutes(r chi.Routes) []RouteInfo {
	var routes []RouteInfo
	_ = chi.Walk(r, func(method, route string, handler http.Handler, mws ...func(http.Handler) http.Handler) error {
		routes = append(routes, RouteInfo{
			Method:      method,
			Path:        strings.TrimSuffix(route, "/*"),
			Middlewares: len(mws),
		})
		return nil
	})

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// ListMethods groups the routes of r by path
func ListMethods(r chi.Routes) []PathMethods {
	var out []PathMethods
	for _, route := range ListRoutes(r) {
		if n := len(out); n > 0 && out[n-1].Path == route.Path {
			out[n-1].Methods = append(out[n-1].Methods, route.Method)
			continue
		}
		out = append(out, PathMethods{Path: route.Path, Methods: []string{route.Method}})
	}
	return out
}
