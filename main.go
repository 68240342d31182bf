package main

import (
	"context"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"connectx/api"
	"connectx/auth"
	"connectx/constants"
	docs "connectx/doclib"
	"connectx/routes/account"
	"connectx/routes/posts"
	"connectx/routes/users"
	"connectx/schema"
	"connectx/state"
	"connectx/uapi"

	"github.com/cloudflare/tableflip"

	"github.com/infinitybotlist/eureka/jsonimpl"
	"github.com/infinitybotlist/eureka/zapchi"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	_ "embed"
)

//go:embed data/docs.html
var docsHTML string

var openapi []byte

// Simple middleware to handle CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// limit body to 10mb
		r.Body = http.MaxBytesReader(w, r.Body, 10*1024*1024)

		if origin := r.Header.Get("Origin"); origin != "" {
			// Credentialed requests need the exact origin echoed back
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "X-Session-Invalid, Retry-After")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE")

		if r.Method == "OPTIONS" {
			w.Write([]byte{})
			return
		}

		w.Header().Set("Content-Type", "application/json")

		next.ServeHTTP(w, r)
	})
}

// Ratelimit Middleware
type RateLimiterMiddleware struct {
	limiter *rate.Limiter
	paths   map[string]struct{}
}

func NewRateLimiterMiddleware(rateLimit rate.Limit, burst int, paths []string) *RateLimiterMiddleware {
	limitedPaths := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		limitedPaths[path] = struct{}{}
	}

	return &RateLimiterMiddleware{
		limiter: rate.NewLimiter(rateLimit, burst),
		paths:   limitedPaths,
	}
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, limited := rl.paths[r.URL.Path]; limited && !rl.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(constants.TooManyRequests))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	state.Setup()

	var err error

	store, err := state.OpenStorage(state.Config, state.Logger)

	if err != nil {
		state.Logger.Fatal("Error opening entity store", zap.Error(err))
	}

	defer store.Close()

	sessionStore, err := state.OpenSessions(state.Context, state.Config, state.Logger)

	if err != nil {
		state.Logger.Fatal("Error opening session store", zap.Error(err))
	}

	defer sessionStore.Close()

	ttl, _, err := state.Config.Sessions.Durations()

	if err != nil {
		state.Logger.Fatal("Invalid session config", zap.Error(err))
	}

	authManager := auth.NewManager(store, sessionStore, auth.Options{
		SessionTTL: ttl,
		Logger:     state.Logger,
	})

	api.SetupDocs(state.Config.Server.BaseURL, state.Logger)
	api.Setup(api.Options{
		Auth:       authManager,
		CookieName: state.Config.Sessions.CookieName,
		Logger:     state.Logger,
	})

	r := chi.NewRouter()

	middlewares := []func(http.Handler) http.Handler{
		middleware.Recoverer,
		middleware.RealIP,
		middleware.CleanPath,
		middleware.Heartbeat("/ping"),
		middleware.Compress(5),
		middleware.Timeout(30 * time.Second),
		corsMiddleware,
	}

	if state.Config.Server.RateLimit > 0 {
		ratelimit := NewRateLimiterMiddleware(
			rate.Limit(state.Config.Server.RateLimit),
			state.Config.Server.RateLimit,
			[]string{"/auth/login", "/auth/register"},
		)
		middlewares = append(middlewares, ratelimit.Middleware)
	}

	middlewares = append(middlewares, zapchi.Logger(state.Logger, "api"))

	r.Use(middlewares...)

	validate := schema.New(state.Validator)

	routers := []uapi.APIRouter{
		account.Router{
			Auth:         authManager,
			Schema:       validate,
			CookieName:   state.Config.Sessions.CookieName,
			SecureCookie: strings.HasPrefix(state.Config.Server.BaseURL, "https://"),
		},
		posts.Router{Store: store, Schema: validate},
		users.Router{Store: store},
	}

	for _, router := range routers {
		name, desc := router.Tag()
		if name != "" {
			docs.AddTag(name, desc)
			uapi.State.SetCurrentTag(name)
		} else {
			panic("Router tag name cannot be empty")
		}

		router.Routes(r)
	}

	r.Get("/openapi", func(w http.ResponseWriter, r *http.Request) {
		w.Write(openapi)
	})

	docsTempl := template.Must(template.New("docs").Parse(docsHTML))

	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		docsTempl.Execute(w, map[string]string{
			"url": "/openapi",
		})
	})

	// Load openapi here to avoid large marshalling in every request
	openapi, err = jsonimpl.Marshal(docs.GetSchema())

	if err != nil {
		panic(err)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(constants.EndpointNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(constants.MethodNotAllowed))
	})

	server := &http.Server{
		ReadTimeout: 30 * time.Second,
		Handler:     r,
	}

	// If GOOS is windows, do normal http server
	if runtime.GOOS == "linux" || runtime.GOOS == "darwin" {
		upg, err := tableflip.New(tableflip.Options{})

		if err != nil {
			state.Logger.Fatal("Error creating upgrader", zap.Error(err))
		}

		defer upg.Stop()

		go func() {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
			for s := range sig {
				if s == syscall.SIGHUP {
					state.Logger.Info("Received SIGHUP, upgrading server")
					if err := upg.Upgrade(); err != nil {
						state.Logger.Error("Upgrade failed", zap.Error(err))
					}
					continue
				}

				state.Logger.Info("Shutting down", zap.String("signal", s.String()))
				upg.Stop()
				return
			}
		}()

		// Listen must be called before Ready
		ln, err := upg.Listen("tcp", state.Config.Server.Port)

		if err != nil {
			state.Logger.Fatal("Error binding to socket", zap.Error(err))
		}

		defer ln.Close()

		go func() {
			err := server.Serve(ln)
			if err != http.ErrServerClosed {
				state.Logger.Error("Server failed due to unexpected error", zap.Error(err))
			}
		}()

		if err := upg.Ready(); err != nil {
			state.Logger.Fatal("Error calling upg.Ready", zap.Error(err))
		}

		<-upg.Exit()

		ctx, cancel := context.WithTimeout(state.Context, 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			state.Logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	} else {
		// Tableflip not supported
		state.Logger.Warn("Tableflip not supported on this platform, this is not a production-capable server.")
		server.Addr = state.Config.Server.Port
		err = server.ListenAndServe()

		if err != nil {
			state.Logger.Error("Error binding to socket", zap.Error(err))
		}
	}
}
