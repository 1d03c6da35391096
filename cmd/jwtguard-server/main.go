// Command jwtguard-server serves a protected endpoint behind the jwtguard
// middleware. It is configured through JWTGUARD_* environment variables,
// optionally read from a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jwtdemo/jwtguard"
	"github.com/jwtdemo/jwtguard/config"
	"github.com/jwtdemo/jwtguard/core"
	"github.com/jwtdemo/jwtguard/jwks"
	"github.com/jwtdemo/jwtguard/keys"
	"github.com/jwtdemo/jwtguard/validator"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	log := logrus.New()
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	configureLogger(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, closeResolver, err := newResolver(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("could not set up key resolver")
	}
	defer closeResolver()

	alg, _ := validator.ParseAlgorithm(cfg.Algorithm)
	v, err := validator.New(
		validator.WithAlgorithm(alg),
		validator.WithAllowedClockSkew(cfg.ClockSkew),
	)
	if err != nil {
		log.WithError(err).Fatal("could not set up validator")
	}

	logger := jwtguard.NewLogrusLogger(log)
	coreOpts := []core.Option{
		core.WithKeyResolver(resolver),
		core.WithVerifier(v),
		core.WithKeySelector(core.KeySelector{KeyID: cfg.KeyID, Algorithm: cfg.Algorithm}),
		core.WithLogger(logger),
		core.WithTracer(jwtguard.Tracer(nil)),
	}
	if cfg.LegacyPrefix {
		coreOpts = append(coreOpts, core.WithLegacyPrefixRemoval())
	}
	c, err := core.New(coreOpts...)
	if err != nil {
		log.WithError(err).Fatal("could not set up validation core")
	}

	metrics, err := jwtguard.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("could not register metrics")
	}

	middleware, err := jwtguard.New(
		jwtguard.WithCore(c),
		jwtguard.WithLogger(logger),
		jwtguard.WithMetrics(metrics),
		jwtguard.WithExclusionUrls([]string{"/healthz", "/metrics"}),
	)
	if err != nil {
		log.WithError(err).Fatal("could not set up middleware")
	}

	mux := http.NewServeMux()
	mux.Handle("/protected", http.HandlerFunc(protected))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           middleware.CheckJWT(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":       cfg.ListenAddr,
		"key_source": cfg.KeySource,
	}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server failed")
	}
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

// newResolver builds the key resolver for cfg.KeySource. The returned func
// releases any client it opened.
func newResolver(ctx context.Context, cfg *config.Config) (core.KeyResolver, func(), error) {
	noop := func() {}

	switch cfg.KeySource {
	case config.KeySourcePEM:
		key, err := keys.LoadPEMFile(cfg.PublicKeyFile, cfg.KeyID)
		if err != nil {
			return nil, noop, err
		}
		r, err := keys.NewStaticResolver(key)
		return r, noop, err

	case config.KeySourceJWKS:
		opts := []any{jwks.WithCacheTTL(cfg.CacheTTL)}
		if cfg.IssuerURL != "" {
			u, err := url.Parse(cfg.IssuerURL)
			if err != nil {
				return nil, noop, err
			}
			opts = append(opts, jwks.WithIssuerURL(u))
		}
		if cfg.JWKSURL != "" {
			u, err := url.Parse(cfg.JWKSURL)
			if err != nil {
				return nil, noop, err
			}
			opts = append(opts, jwks.WithCustomJWKSURI(u))
		}

		closer := noop
		if cfg.RedisAddr != "" {
			client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			cache, err := jwks.NewRedisCache(client, cfg.CacheTTL, nil)
			if err != nil {
				_ = client.Close()
				return nil, noop, err
			}
			opts = append(opts, jwks.WithCache(cache))
			closer = func() { _ = client.Close() }
		}

		p, err := jwks.NewCachingProvider(opts...)
		if err != nil {
			closer()
			return nil, noop, err
		}
		return p, closer, nil

	case config.KeySourceSecretManager:
		client, err := secretmanager.NewClient(ctx)
		if err != nil {
			return nil, noop, err
		}
		r, err := keys.NewSecretManagerResolver(client, cfg.GCPProject)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return r, func() { _ = client.Close() }, nil
	}

	return nil, noop, errors.New("unknown key source " + cfg.KeySource)
}

func protected(w http.ResponseWriter, r *http.Request) {
	claims, err := jwtguard.GetClaims[*validator.ValidatedClaims](r.Context())
	if err != nil {
		http.Error(w, "no claims", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"subject": claims.RegisteredClaims.Subject,
		"claims":  claims,
	})
}
