package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	tokenledger "custodia/contexts/asset-core/token-ledger"
	ledgererrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	ledgerhttp "custodia/contexts/asset-core/token-ledger/transport/http"
	"custodia/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "custodia/internal/platform/httpserver/docs"
)

// callerHeader carries the caller identity for every mutating route.
const callerHeader = "X-Caller-Address"

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	ledger  tokenledger.Module
	metrics *metrics.Registry

	enableSwagger bool
}

func New(
	ledger tokenledger.Module,
	registry *metrics.Registry,
	logger *slog.Logger,
	addr string,
	enableSwagger bool,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		ledger:        ledger,
		metrics:       registry,
		enableSwagger: enableSwagger,
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

// Mux exposes the router for in-process tests.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) registerRoutes() {
	if s.enableSwagger {
		s.mux.Handle("/swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handle("GET /v1/ledger/meta", "meta", s.handleMeta)
	s.handle("GET /v1/ledger/supply", "supply", s.handleSupply)
	s.handle("GET /v1/ledger/owner", "owner", s.handleOwner)
	s.handle("GET /v1/ledger/accounts/{address}", "account", s.handleAccount)

	s.handle("POST /v1/ledger/mint", "mint", s.handleMint)
	s.handle("POST /v1/ledger/burn", "burn", s.handleBurn)
	s.handle("POST /v1/ledger/burn-from", "burn_from", s.handleBurnFrom)
	s.handle("POST /v1/ledger/transfer", "transfer", s.handleTransfer)
	s.handle("POST /v1/ledger/transfer-from", "transfer_from", s.handleTransferFrom)
	s.handle("POST /v1/ledger/approve", "approve", s.handleApprove)
	s.handle("GET /v1/ledger/allowances/{owner}/{spender}", "allowance", s.handleAllowance)

	s.handle("POST /v1/ledger/accounts/{address}/lock", "lock", s.handleLock)
	s.handle("POST /v1/ledger/accounts/{address}/unlock", "unlock", s.handleUnlock)

	s.handle("POST /v1/ledger/blacklist", "blacklist_add", s.handleAddToBlacklist)
	s.handle("DELETE /v1/ledger/blacklist/{address}", "blacklist_remove", s.handleRemoveFromBlacklist)
	s.handle("GET /v1/ledger/blacklist/{address}", "blacklist_get", s.handleBlacklistMembership)
	s.handle("POST /v1/ledger/whitelist", "whitelist_add", s.handleAddToWhitelist)
	s.handle("DELETE /v1/ledger/whitelist/{address}", "whitelist_remove", s.handleRemoveFromWhitelist)
	s.handle("GET /v1/ledger/whitelist/{address}", "whitelist_get", s.handleWhitelistMembership)

	s.handle("POST /v1/ledger/airdrop", "airdrop", s.handleAirdrop)
	s.handle("POST /v1/ledger/owner/transfer", "transfer_ownership", s.handleTransferOwnership)
}

func (s *Server) handle(pattern string, route string, handler http.HandlerFunc) {
	if s.metrics == nil {
		s.mux.HandleFunc(pattern, handler)
		return
	}
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(recorder, r)
		s.metrics.RequestSeconds.
			WithLabelValues(route, strconv.Itoa(recorder.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.MetaHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, "meta", err)
		return
	}
	s.writeOK(w, "meta", resp)
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.SupplyHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, "supply", err)
		return
	}
	s.writeOK(w, "supply", resp)
}

func (s *Server) handleOwner(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.OwnerHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, "owner", err)
		return
	}
	s.writeOK(w, "owner", resp)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.AccountHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeDomainError(w, "account", err)
		return
	}
	s.writeOK(w, "account", resp)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.MintRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.MintHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "mint", err)
		return
	}
	s.writeOK(w, "mint", resp)
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.BurnRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.BurnHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "burn", err)
		return
	}
	s.writeOK(w, "burn", resp)
}

func (s *Server) handleBurnFrom(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.BurnFromRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.BurnFromHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "burn_from", err)
		return
	}
	s.writeOK(w, "burn_from", resp)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.TransferRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.TransferHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "transfer", err)
		return
	}
	s.writeOK(w, "transfer", resp)
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.TransferFromRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.TransferFromHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "transfer_from", err)
		return
	}
	s.writeOK(w, "transfer_from", resp)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.ApproveRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.ApproveHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "approve", err)
		return
	}
	s.writeOK(w, "approve", resp)
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.AllowanceHandler(r.Context(), r.PathValue("owner"), r.PathValue("spender"))
	if err != nil {
		s.writeDomainError(w, "allowance", err)
		return
	}
	s.writeOK(w, "allowance", resp)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.LockRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.LockHandler(r.Context(), caller, r.PathValue("address"), req)
	if err != nil {
		s.writeDomainError(w, "lock", err)
		return
	}
	s.writeOK(w, "lock", resp)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.UnlockRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.UnlockHandler(r.Context(), caller, r.PathValue("address"), req)
	if err != nil {
		s.writeDomainError(w, "unlock", err)
		return
	}
	s.writeOK(w, "unlock", resp)
}

func (s *Server) handleAddToBlacklist(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.ListMembershipRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.AddToBlacklistHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "blacklist_add", err)
		return
	}
	s.writeOK(w, "blacklist_add", resp)
}

func (s *Server) handleRemoveFromBlacklist(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.RemoveFromBlacklistHandler(r.Context(), caller, r.PathValue("address"))
	if err != nil {
		s.writeDomainError(w, "blacklist_remove", err)
		return
	}
	s.writeOK(w, "blacklist_remove", resp)
}

func (s *Server) handleBlacklistMembership(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.BlacklistMembershipHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeDomainError(w, "blacklist_get", err)
		return
	}
	s.writeOK(w, "blacklist_get", resp)
}

func (s *Server) handleAddToWhitelist(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.ListMembershipRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.AddToWhitelistHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "whitelist_add", err)
		return
	}
	s.writeOK(w, "whitelist_add", resp)
}

func (s *Server) handleRemoveFromWhitelist(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.RemoveFromWhitelistHandler(r.Context(), caller, r.PathValue("address"))
	if err != nil {
		s.writeDomainError(w, "whitelist_remove", err)
		return
	}
	s.writeOK(w, "whitelist_remove", resp)
}

func (s *Server) handleWhitelistMembership(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.WhitelistMembershipHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeDomainError(w, "whitelist_get", err)
		return
	}
	s.writeOK(w, "whitelist_get", resp)
}

func (s *Server) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.AirdropRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.AirdropHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "airdrop", err)
		return
	}
	s.writeOK(w, "airdrop", resp)
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.TransferOwnershipRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.ledger.Handler.TransferOwnershipHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, "transfer_ownership", err)
		return
	}
	s.writeOK(w, "transfer_ownership", resp)
}

func (s *Server) requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		writeError(w, http.StatusUnauthorized, "missing_caller", callerHeader+" header is required")
		return "", false
	}
	return caller, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func (s *Server) writeOK(w http.ResponseWriter, operation string, payload any) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, nil)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) writeDomainError(w http.ResponseWriter, operation string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, err)
	}
	switch {
	case errors.Is(err, ledgererrors.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, ledgererrors.ErrBlacklisted):
		writeError(w, http.StatusForbidden, "blacklisted", err.Error())
	case errors.Is(err, ledgererrors.ErrZeroAddress):
		writeError(w, http.StatusBadRequest, "zero_address", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidAccount):
		writeError(w, http.StatusBadRequest, "invalid_account", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, "invalid_address", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, ledgererrors.ErrLengthMismatch):
		writeError(w, http.StatusBadRequest, "length_mismatch", err.Error())
	case errors.Is(err, ledgererrors.ErrAlreadyListed):
		writeError(w, http.StatusConflict, "already_listed", err.Error())
	case errors.Is(err, ledgererrors.ErrNotListed):
		writeError(w, http.StatusConflict, "not_listed", err.Error())
	case errors.Is(err, ledgererrors.ErrAlreadyInitialized):
		writeError(w, http.StatusConflict, "already_initialized", err.Error())
	case errors.Is(err, ledgererrors.ErrLockedFunds):
		writeError(w, http.StatusUnprocessableEntity, "locked_funds", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientLocked):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_locked", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientAllowance):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_allowance", err.Error())
	case errors.Is(err, ledgererrors.ErrOverflow):
		writeError(w, http.StatusUnprocessableEntity, "overflow", err.Error())
	case errors.Is(err, ledgererrors.ErrUnderflow):
		writeError(w, http.StatusUnprocessableEntity, "underflow", err.Error())
	case errors.Is(err, ledgererrors.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, "not_initialized", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
