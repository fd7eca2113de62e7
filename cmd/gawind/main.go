// Command gawind runs the Gawin gateway HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gawin "github.com/gawin-ai/gateway"
	"github.com/gawin-ai/gateway/internal/admin"
	"github.com/gawin-ai/gateway/internal/history"
	"github.com/gawin-ai/gateway/internal/logging"
	"github.com/gawin-ai/gateway/internal/ratelimit"
	"github.com/gawin-ai/gateway/internal/sessions"
	"github.com/gawin-ai/gateway/internal/version"
	"github.com/gawin-ai/gateway/providers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Register built-in plugins so they can be loaded from config.
	_ "github.com/gawin-ai/gateway/internal/plugins/cache"
	_ "github.com/gawin-ai/gateway/internal/plugins/history"
	_ "github.com/gawin-ai/gateway/internal/plugins/maxtoken"
	_ "github.com/gawin-ai/gateway/internal/plugins/schemaguard"
)

const (
	defaultSessionTTL   = 30 * time.Minute
	defaultSessionSweep = time.Minute
)

func main() {
	logging.Setup(os.Getenv("GAWIN_LOG_LEVEL"), os.Getenv("GAWIN_LOG_FORMAT"))

	// Load and validate config if GAWIN_CONFIG is set.
	var cfg *gawin.Config
	if cfgPath := os.Getenv("GAWIN_CONFIG"); cfgPath != "" {
		loaded, err := gawin.LoadConfig(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if err := gawin.ValidateConfig(*loaded); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		cfg = loaded
		log.Printf("Config loaded: chain=%v, degrade_mode=%s", cfg.Providers, cfg.DegradeMode)
	}

	adapters := adaptersFromEnv()
	if len(adapters) == 0 {
		log.Fatal("No providers configured. Set at least one provider API key (e.g., GROQ_API_KEY, GEMINI_API_KEY, DEEPSEEK_API_KEY)")
	}

	if cfg == nil {
		names := make([]string, 0, len(adapters))
		for _, a := range adapters {
			names = append(names, a.Name())
		}
		cfg = &gawin.Config{Providers: names}
		log.Printf("No GAWIN_CONFIG set; using env-derived chain %v", names)
	}

	gw, err := gawin.New(*cfg)
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}
	for _, a := range adapters {
		gw.RegisterAdapter(a)
		log.Printf("Provider registered: %s", a.Name())
	}

	if cfg.History.Enabled {
		store, err := openHistory(cfg.History)
		if err != nil {
			log.Fatalf("Failed to open history store: %v", err)
		}
		defer func() { _ = store.Close() }()
		gw.SetHistoryStore(store)
		log.Printf("Conversation history enabled: driver=%s", historyDriver(cfg.History))
	}

	if len(cfg.Plugins) > 0 {
		if err := gw.LoadPlugins(); err != nil {
			log.Fatalf("Failed to load plugins: %v", err)
		}
	}

	pool := sessions.NewPool(sessionTTL(cfg.Sessions))

	keyStore := admin.NewKeyStore()
	bootstrapAdminKey(keyStore)

	var corsOrigins []string
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsOrigins = strings.Split(origins, ",")
	}

	r := newRouter(gw, pool, keyStore, corsOrigins)

	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pool.Run(ctx, sessionSweep(cfg.Sessions))

	go func() {
		<-ctx.Done()
		log.Println("Shutting down gracefully…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Gawin %s listening on %s (%d provider(s))", version.Short(), addr, len(gw.List()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stop()
		log.Fatalf("Server error: %v", err) //nolint:gocritic
	}
	log.Println("Server stopped.")
}

// adaptersFromEnv builds one adapter per provider API key found in the
// environment.
func adaptersFromEnv() []providers.Adapter {
	var adapters []providers.Adapter

	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		adapters = append(adapters, providers.NewGroq(key, ""))
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		adapters = append(adapters, providers.NewGemini(key, ""))
	}
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		adapters = append(adapters, providers.NewDeepSeek(key, ""))
	}
	if key := os.Getenv("PERPLEXITY_API_KEY"); key != "" {
		adapters = append(adapters, providers.NewPerplexity(key, ""))
	}
	if key := os.Getenv("HF_API_KEY"); key != "" {
		adapters = append(adapters, providers.NewHuggingFace(key, ""))
	} else if key := os.Getenv("HF_TOKEN"); key != "" {
		adapters = append(adapters, providers.NewHuggingFace(key, ""))
	}

	// Bedrock needs region plus AWS credentials (explicit or ambient).
	if region := os.Getenv("AWS_REGION"); region != "" && os.Getenv("GAWIN_BEDROCK") == "1" {
		b, err := providers.NewBedrock(context.Background(), region,
			os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"))
		if err != nil {
			log.Fatalf("Bedrock provider: %v", err)
		}
		adapters = append(adapters, b)
	}

	return adapters
}

func openHistory(hc gawin.HistoryConfig) (history.Store, error) {
	if hc.Driver == "postgres" {
		return history.NewPostgres(hc.DSN)
	}
	dsn := hc.DSN
	if dsn == "" {
		dsn = "gawin.db"
	}
	return history.NewSQLite(dsn)
}

func historyDriver(hc gawin.HistoryConfig) string {
	if hc.Driver == "" {
		return "sqlite"
	}
	return hc.Driver
}

func sessionTTL(sc gawin.SessionConfig) time.Duration {
	if sc.TTLSeconds > 0 {
		return time.Duration(sc.TTLSeconds) * time.Second
	}
	return defaultSessionTTL
}

func sessionSweep(sc gawin.SessionConfig) time.Duration {
	if sc.SweepSeconds > 0 {
		return time.Duration(sc.SweepSeconds) * time.Second
	}
	return defaultSessionSweep
}

// bootstrapAdminKey seeds the key store from GAWIN_ADMIN_KEY so operators
// can reach /admin on a fresh start.
func bootstrapAdminKey(store *admin.KeyStore) {
	key := os.Getenv("GAWIN_ADMIN_KEY")
	if key == "" {
		return
	}
	if err := store.Seed("bootstrap", key, []string{admin.ScopeAdmin}); err != nil {
		log.Fatalf("Failed to seed admin key: %v", err)
	}
	log.Println("Admin API key seeded from GAWIN_ADMIN_KEY")
}

// newRouter builds the HTTP router.
func newRouter(gw *gawin.Gateway, pool *sessions.Pool, keyStore admin.Store, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(corsMiddleware(corsOrigins...))

	health := healthHandler(gw, pool)
	r.Get("/health", health)
	r.Get("/v1/health", health)
	r.Get("/v1/models", modelsHandler(gw))
	r.Post("/v1/chat/completions", chatHandler(gw))

	ocrLimiter := ratelimit.NewPerKey(1, 3)
	r.Post("/v1/ocr", ocrHandler(gw, ocrLimiter))

	r.Route("/v1/sessions", func(r chi.Router) {
		h := &sessionHandlers{pool: pool}
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/touch", h.touch)
		r.Delete("/{id}", h.delete)
	})

	r.Route("/v1/conversations", func(r chi.Router) {
		h := &conversationHandlers{gw: gw}
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.delete)
	})

	r.Handle("/metrics", promhttp.Handler())

	adminHandlers := &admin.Handlers{Keys: keyStore, Providers: gw}
	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.AuthMiddleware(keyStore))
		r.Mount("/", adminHandlers.Routes())
	})

	return r
}
