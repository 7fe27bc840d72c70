package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	airdropregistry "almoner/contexts/distribution-core/airdrop-registry"
	registryerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	registryhttp "almoner/contexts/distribution-core/airdrop-registry/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "almoner/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	registry airdropregistry.Module
}

func New(registry airdropregistry.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		registry: registry,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/registry", s.handleInitializeRegistry)
	s.mux.HandleFunc("GET /v1/registry", s.handleGetRegistry)
	s.mux.HandleFunc("POST /v1/registry/operators", s.handleSetOperators)
	s.mux.HandleFunc("PUT /v1/registry/fee-rate", s.handleSetFeeRate)
	s.mux.HandleFunc("POST /v1/registry/fees/withdraw", s.handleWithdrawFees)

	s.mux.HandleFunc("POST /v1/campaigns", s.handleCreateCampaign)
	s.mux.HandleFunc("GET /v1/campaigns", s.handleListCampaigns)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("PUT /v1/campaigns/{campaign_id}", s.handleUpdateCampaign)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/claims", s.handleClaim)
}

func (s *Server) handleInitializeRegistry(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.InitializeRegistryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.InitializeRegistryHandler(r.Context(), userID, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.GetRegistryHandler(r.Context())
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetOperators(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.SetOperatorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.SetOperatorsHandler(r.Context(), userID, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetFeeRate(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.SetFeeRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.SetFeeRateHandler(r.Context(), userID, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.WithdrawFeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.WithdrawFeesHandler(r.Context(), userID, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.CreateCampaignHandler(
		r.Context(),
		userID,
		req,
		r.Header.Get("Idempotency-Key"),
	)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.registry.Handler.ListCampaignsHandler(
		r.Context(),
		query.Get("creator"),
		query.Get("phase"),
	)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.GetCampaignHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.UpdateCampaignHandler(
		r.Context(),
		userID,
		r.PathValue("campaign_id"),
		req,
	)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.ClaimHandler(
		r.Context(),
		userID,
		r.PathValue("campaign_id"),
		req,
	)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrRegistryNotInitialized):
		writeRegistryError(w, http.StatusNotFound, "registry_not_initialized", err.Error())
	case errors.Is(err, registryerrors.ErrRegistryAlreadyInitialized):
		writeRegistryError(w, http.StatusConflict, "registry_already_initialized", err.Error())
	case errors.Is(err, registryerrors.ErrNotAdministrator):
		writeRegistryError(w, http.StatusForbidden, "not_administrator", err.Error())
	case errors.Is(err, registryerrors.ErrNotOperator):
		writeRegistryError(w, http.StatusForbidden, "not_operator", err.Error())
	case errors.Is(err, registryerrors.ErrNotCampaignCreator):
		writeRegistryError(w, http.StatusForbidden, "not_campaign_creator", err.Error())
	case errors.Is(err, registryerrors.ErrLengthsMismatch):
		writeRegistryError(w, http.StatusBadRequest, "lengths_mismatch", err.Error())
	case errors.Is(err, registryerrors.ErrCampaignAlreadyExists):
		writeRegistryError(w, http.StatusConflict, "campaign_already_exists", err.Error())
	case errors.Is(err, registryerrors.ErrCampaignNotFound):
		writeRegistryError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrCampaignNotStarted):
		writeRegistryError(w, http.StatusConflict, "campaign_not_started", err.Error())
	case errors.Is(err, registryerrors.ErrUpdateNotAllowed):
		writeRegistryError(w, http.StatusConflict, "update_not_allowed", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidStartingTime):
		writeRegistryError(w, http.StatusBadRequest, "invalid_starting_time", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidAssetIndex):
		writeRegistryError(w, http.StatusBadRequest, "invalid_asset_index", err.Error())
	case errors.Is(err, registryerrors.ErrAssetMismatch):
		writeRegistryError(w, http.StatusUnprocessableEntity, "asset_mismatch", err.Error())
	case errors.Is(err, registryerrors.ErrAssetAlreadyClaimed):
		writeRegistryError(w, http.StatusConflict, "asset_already_claimed", err.Error())
	case errors.Is(err, registryerrors.ErrInsufficientBalance):
		writeRegistryError(w, http.StatusPaymentRequired, "insufficient_balance", err.Error())
	case errors.Is(err, registryerrors.ErrUnauthorizedTransfer):
		writeRegistryError(w, http.StatusForbidden, "unauthorized_transfer", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidRegistryInput):
		writeRegistryError(w, http.StatusBadRequest, "invalid_registry_input", err.Error())
	case errors.Is(err, registryerrors.ErrIdempotencyKeyRequired):
		writeRegistryError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, registryerrors.ErrIdempotencyKeyConflict):
		writeRegistryError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
