package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/elys-network/vaultengine/internal/logger"
	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/utils"
	"github.com/elys-network/vaultengine/internal/vault"
)

const shutdownTimeout = 10 * time.Second

// WebServer exposes a vault.Manager over a JSON HTTP API.
type WebServer struct {
	router  *mux.Router
	port    string
	manager vault.Manager
	metrics http.Handler
	started time.Time
	log     zerolog.Logger
}

// NewWebServer creates a new web server instance. metricsHandler may be nil, in which case
// /metrics is not routed.
func NewWebServer(port string, manager vault.Manager, metricsHandler http.Handler) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:  mux.NewRouter(),
		port:    port,
		manager: manager,
		metrics: metricsHandler,
		started: time.Now(),
		log:     logger.GetForComponent("web_server"),
	}

	server.setupRoutes()
	return server
}

// Handler returns the routed handler, for embedding or httptest.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	if ws.metrics != nil {
		ws.router.Handle("/metrics", ws.metrics).Methods("GET")
	}

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")

	api.HandleFunc("/vaults", ws.handleListVaults).Methods("GET")
	api.HandleFunc("/vaults/{id}", ws.handleGetVault).Methods("GET")
	api.HandleFunc("/vaults/{id}/pending-withdrawal", ws.handleGetPendingWithdrawal).Methods("GET")
	api.HandleFunc("/positions", ws.handleListPositions).Methods("GET")
	api.HandleFunc("/portfolio", ws.handlePortfolio).Methods("GET")
	api.HandleFunc("/balances", ws.handleGetBalances).Methods("GET")
	api.HandleFunc("/transactions", ws.handleListTransactions).Methods("GET")

	api.HandleFunc("/deposits", ws.handleDeposit).Methods("POST")
	api.HandleFunc("/withdrawals", ws.handleRequestWithdrawal).Methods("POST")
	api.HandleFunc("/withdrawals/{id}/claim", ws.handleClaim).Methods("POST")
	api.HandleFunc("/redemptions", ws.handleRedeem).Methods("POST")
	api.HandleFunc("/cache/clear", ws.handleClearCache).Methods("POST")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	ws.log.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	ws.log.Info().Msg("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth reports process stats and whether the ledger is reachable.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := "OK"
	statusCode := http.StatusOK
	ledgerHealthy := true
	if _, err := ws.manager.ListVaults(r.Context()); err != nil {
		status = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
		ledgerHealthy = false
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"component": map[string]interface{}{
			"name":    "vaultengine",
			"version": "1.0.0",
		},
		"ledger_healthy": ledgerHealthy,
	}

	ws.writeJSONResponse(w, statusCode, response)
}

func (ws *WebServer) handleListVaults(w http.ResponseWriter, r *http.Request) {
	vaults, err := ws.manager.ListVaults(r.Context())
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"vaults": vaults,
		"count":  len(vaults),
	})
}

func (ws *WebServer) handleGetVault(w http.ResponseWriter, r *http.Request) {
	v, err := ws.manager.GetVault(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, v)
}

// handleGetPendingWithdrawal answers 200 with a null withdrawal when nothing is pending.
func (ws *WebServer) handleGetPendingWithdrawal(w http.ResponseWriter, r *http.Request) {
	pending, err := ws.manager.GetPendingWithdrawal(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"withdrawal": pending,
	})
}

func (ws *WebServer) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := ws.manager.ListPositions(r.Context())
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
	})
}

func (ws *WebServer) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	summary, err := ws.manager.Portfolio(r.Context())
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, summary)
}

func (ws *WebServer) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := ws.manager.GetBalances(r.Context())
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, balances)
}

func (ws *WebServer) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	vaultID := r.URL.Query().Get("vaultId")
	records, err := ws.manager.ListTransactions(r.Context(), vaultID)
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"transactions": records,
		"count":        len(records),
	})
}

type depositRequest struct {
	VaultID          string `json:"vaultId"`
	Amount           string `json:"amount"`
	LockupPeriodDays int    `json:"lockupPeriodDays"`
}

type withdrawalRequest struct {
	VaultID string `json:"vaultId"`
	Amount  string `json:"amount"`
}

type redemptionRequest struct {
	Amount string `json:"amount"`
}

func (ws *WebServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	amount, ok := ws.parseAmount(w, req.Amount)
	if !ok {
		return
	}

	record, err := ws.manager.Deposit(r.Context(), req.VaultID, amount, req.LockupPeriodDays)
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusCreated, record)
}

func (ws *WebServer) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	amount, ok := ws.parseAmount(w, req.Amount)
	if !ok {
		return
	}

	pending, err := ws.manager.RequestWithdrawal(r.Context(), req.VaultID, amount)
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusAccepted, pending)
}

func (ws *WebServer) handleClaim(w http.ResponseWriter, r *http.Request) {
	record, err := ws.manager.Claim(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, record)
}

func (ws *WebServer) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redemptionRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	amount, ok := ws.parseAmount(w, req.Amount)
	if !ok {
		return
	}

	record, err := ws.manager.RedeemReceiptTokens(r.Context(), amount)
	if err != nil {
		ws.writeOperationError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, record)
}

func (ws *WebServer) handleClearCache(w http.ResponseWriter, r *http.Request) {
	ws.manager.ClearCache()
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"cleared": true,
	})
}

func (ws *WebServer) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// parseAmount rejects text that is not a decimal. Sign checks are left to the service.
func (ws *WebServer) parseAmount(w http.ResponseWriter, s string) (sdkmath.LegacyDec, bool) {
	amount, err := utils.ParseAmount(s)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, types.ErrorCode(types.ErrInvalidAmount), "Invalid amount: "+err.Error())
		return sdkmath.LegacyDec{}, false
	}
	return amount, true
}

// statusForError maps the engine's error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrVaultNotFound), errors.Is(err, types.ErrWithdrawalNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidAmount), errors.Is(err, types.ErrInvalidLockupPeriod):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrInsufficientBalance), errors.Is(err, types.ErrInsufficientLiquidity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrAlreadyPending), errors.Is(err, types.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, types.ErrStoreClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (ws *WebServer) writeOperationError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		ws.log.Error().Err(err).Msg("Operation failed")
	}
	ws.writeErrorResponse(w, status, types.ErrorCode(err), err.Error())
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		ws.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	response := map[string]interface{}{
		"error":     true,
		"code":      code,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		ws.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
