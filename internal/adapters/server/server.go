// Package server mounts the REST API and the MCP endpoint on one HTTP listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/gantry/internal/adapters/server/common"
	"github.com/evanschultz/gantry/internal/adapters/server/httpapi"
	"github.com/evanschultz/gantry/internal/adapters/server/mcpapi"
)

const (
	defaultBindAddress = "127.0.0.1:5437"
	defaultAPIEndpoint = "/api/v1"
	defaultMCPEndpoint = "/mcp"
	shutdownGrace      = 5 * time.Second
)

// Config names the listener address, mount points and the identity reported to MCP clients.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies are the collaborators both transports call into.
type Dependencies struct {
	Service common.Service
	// Logger receives one line per request. Nil disables request logging.
	Logger *log.Logger
}

// NewHandler builds the root mux: /healthz, /readyz, the REST API and the MCP endpoint.
// It returns the config with defaults applied.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, Config{}, err
	}
	if deps.Service == nil {
		return nil, Config{}, errors.New("service dependency is required")
	}

	mcpHandler, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Service)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	api := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.Service))

	mux := http.NewServeMux()
	health := healthHandler(cfg)
	mux.Handle("/healthz", health)
	mux.Handle("/readyz", health)
	mux.Handle(cfg.MCPEndpoint, mcpHandler)
	mux.Handle(cfg.APIEndpoint, api)
	mux.Handle(cfg.APIEndpoint+"/", api)

	if deps.Logger == nil {
		return mux, cfg, nil
	}
	return logRequests(mux, deps.Logger), cfg, nil
}

// Run listens on cfg.HTTPBind and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	ln, err := net.Listen("tcp", cfg.HTTPBind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPBind, err)
	}
	if deps.Logger != nil {
		deps.Logger.Info("serving", "addr", ln.Addr().String(), "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
	}
	return Serve(ctx, ln, handler)
}

// Serve runs handler on ln until ctx is cancelled, then shuts down gracefully. It closes ln.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	if ctx == nil {
		ctx = context.Background()
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: shutdownGrace,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve after shutdown: %w", err)
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown server: %w", shutdownErr)
	}
	return nil
}

func normalizeConfig(cfg Config) (Config, error) {
	cfg.HTTPBind = strings.TrimSpace(cfg.HTTPBind)
	if cfg.HTTPBind == "" {
		cfg.HTTPBind = defaultBindAddress
	}
	cfg.APIEndpoint = cleanEndpoint(cfg.APIEndpoint, defaultAPIEndpoint)
	cfg.MCPEndpoint = cleanEndpoint(cfg.MCPEndpoint, defaultMCPEndpoint)
	if nestedEndpoints(cfg.APIEndpoint, cfg.MCPEndpoint) {
		return Config{}, fmt.Errorf("api endpoint %q and mcp endpoint %q overlap", cfg.APIEndpoint, cfg.MCPEndpoint)
	}
	cfg.ServerName = cmpOr(strings.TrimSpace(cfg.ServerName), "gantry")
	cfg.ServerVersion = cmpOr(strings.TrimSpace(cfg.ServerVersion), "dev")
	return cfg, nil
}

// cleanEndpoint returns path as "/a/b" with no trailing slash, or fallback when path is empty or root.
func cleanEndpoint(path, fallback string) string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return fallback
	}
	return "/" + trimmed
}

// nestedEndpoints reports whether a equals b or one mounts under the other.
func nestedEndpoints(a, b string) bool {
	return a == b || strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

func cmpOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// healthHandler answers liveness and readiness probes with the server identity.
func healthHandler(cfg Config) http.Handler {
	body, _ := json.Marshal(map[string]string{
		"status":  "ok",
		"server":  cfg.ServerName,
		"version": cfg.ServerVersion,
	})
	body = append(body, '\n')
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards streaming flushes used by the MCP transport.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests wraps next with one debug log line per request.
func logRequests(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	})
}
