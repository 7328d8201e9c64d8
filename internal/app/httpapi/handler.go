// Package httpapi exposes the gateway over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/xrpl_service_layer/internal/app"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/metrics"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/etf"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/ledgerops"
	"github.com/R3E-Network/xrpl_service_layer/internal/errors"
	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
	"github.com/R3E-Network/xrpl_service_layer/internal/httputil"
	"github.com/R3E-Network/xrpl_service_layer/internal/middleware"
	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// defaultListLimit applies when SUBMISSION_LIST_LIMIT is unset.
const defaultListLimit = 100

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app       *app.Application
	log       *logger.Logger
	listLimit int
}

// NewHandler returns the gateway router wrapped in recovery, tracing, CORS
// and rate limiting middleware.
func NewHandler(application *app.Application, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("http")
	}
	cfg := application.Config()
	h := &handler{app: application, log: log, listLimit: cfg.SubmissionListLimit}
	if h.listLimit <= 0 {
		h.listLimit = defaultListLimit
	}

	router := mux.NewRouter()
	router.Use(metrics.InstrumentHandler)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/create-token", h.createToken).Methods(http.MethodPost)
	api.HandleFunc("/stake", h.stake).Methods(http.MethodPost)
	api.HandleFunc("/liquidity", h.liquidity).Methods(http.MethodPost)
	api.HandleFunc("/vote", h.vote).Methods(http.MethodPost)

	api.HandleFunc("/etf/deposit", h.etfDeposit).Methods(http.MethodPost)
	api.HandleFunc("/etf/withdraw", h.etfWithdraw).Methods(http.MethodPost)

	api.HandleFunc("/governance/proposals", h.propose).Methods(http.MethodPost)
	api.HandleFunc("/governance/votes", h.governanceVote).Methods(http.MethodPost)
	api.HandleFunc("/governance/overrides", h.requestOverride).Methods(http.MethodPost)
	api.HandleFunc("/governance/overrides/apply", h.applyOverride).Methods(http.MethodPost)
	api.HandleFunc("/governance/etfs/{etfId}", h.etfStatus).Methods(http.MethodGet)

	api.HandleFunc("/fees/schedules", h.feeSchedules).Methods(http.MethodGet)
	api.HandleFunc("/submissions", h.submissions).Methods(http.MethodGet)
	api.HandleFunc("/submissions/{id}", h.submission).Methods(http.MethodGet)

	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		se := errors.NotFound("route", r.URL.Path)
		httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorResponse(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log.Named("ratelimit"))

	var out http.Handler = router
	out = limiter.Handler(out)
	out = middleware.CORS(cfg.AllowedOrigins())(out)
	out = middleware.NewTracingMiddleware(log).Handler(out)
	out = middleware.Recovery(log)(out)
	return out
}

// =============================================================================
// Ledger operations
// =============================================================================

func (h *handler) createToken(w http.ResponseWriter, r *http.Request) {
	var payload createTokenRequest
	if !h.decode(w, r, &payload) {
		return
	}
	result, err := h.app.Ledger.CreateToken(r.Context(), ledgerops.CreateTokenRequest{
		IssuerSeed:  payload.IssuerSeed,
		TokenName:   payload.TokenName,
		TokenSymbol: payload.TokenSymbol,
		TotalSupply: payload.TotalSupply.String(),
		Destination: payload.Destination,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

func (h *handler) stake(w http.ResponseWriter, r *http.Request) {
	var payload stakeRequest
	if !h.decode(w, r, &payload) {
		return
	}
	result, err := h.app.Ledger.Stake(r.Context(), ledgerops.StakeRequest{
		StakerSeed:  payload.StakerSeed,
		TokenSymbol: payload.TokenSymbol,
		Amount:      payload.Amount.String(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

func (h *handler) liquidity(w http.ResponseWriter, r *http.Request) {
	var payload liquidityRequest
	if !h.decode(w, r, &payload) {
		return
	}
	result, err := h.app.Ledger.ContributeLiquidity(r.Context(), ledgerops.LiquidityRequest{
		ProviderSeed: payload.ProviderSeed,
		TokenSymbol:  payload.TokenSymbol,
		Amount:       payload.Amount.String(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

func (h *handler) vote(w http.ResponseWriter, r *http.Request) {
	var payload voteRequest
	if !h.decode(w, r, &payload) {
		return
	}
	result, err := h.app.Ledger.Vote(r.Context(), ledgerops.VoteRequest{
		VoterSeed:  payload.VoterSeed,
		ProposalID: payload.ProposalID.String(),
		Vote:       payload.Vote.String(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

// =============================================================================
// ETF
// =============================================================================

func (h *handler) etfDeposit(w http.ResponseWriter, r *http.Request) {
	h.etf(w, r, h.app.ETF.HandleDeposit)
}

func (h *handler) etfWithdraw(w http.ResponseWriter, r *http.Request) {
	h.etf(w, r, h.app.ETF.HandleWithdrawal)
}

func (h *handler) etf(w http.ResponseWriter, r *http.Request, handle func(ctx context.Context, seed, amount string) (*etf.Result, error)) {
	var payload etfRequest
	if !h.decode(w, r, &payload) {
		return
	}
	result, err := handle(r.Context(), payload.UserSeed, payload.Amount.String())
	if err != nil {
		se := toServiceError(err)
		if result != nil {
			// Payments already made are reported with the failure.
			se.WithDetails("result", result)
		}
		httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

// =============================================================================
// Governance
// =============================================================================

func (h *handler) propose(w http.ResponseWriter, r *http.Request) {
	var payload proposalRequest
	if !h.decode(w, r, &payload) {
		return
	}
	result, err := h.app.Governance.ProposeETFChange(r.Context(), payload.ProposerSeed, payload.ETFID.String(), payload.NewAllocation)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: result.Success,
		Message: result.Message,
		Result:  result,
	})
}

func (h *handler) governanceVote(w http.ResponseWriter, r *http.Request) {
	var payload governanceVoteRequest
	if !h.decode(w, r, &payload) {
		return
	}
	result, err := h.app.Governance.GovernanceVote(r.Context(), payload.ETFID.String(), payload.NewAllocation, payload.VoterSeed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

func (h *handler) requestOverride(w http.ResponseWriter, r *http.Request) {
	var payload overrideRequest
	if !h.decode(w, r, &payload) {
		return
	}
	out, err := h.app.Governance.RequestAdminOverride(r.Context(), payload.AdminSeed, payload.ETFID.String(), payload.Global)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, httputil.Envelope{Success: out.Success, Message: out.Message})
}

func (h *handler) applyOverride(w http.ResponseWriter, r *http.Request) {
	var payload overrideRequest
	if !h.decode(w, r, &payload) {
		return
	}
	out, err := h.app.Governance.ApplyAdminOverride(r.Context(), payload.AdminSeed, payload.ETFID.String(), payload.Global)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{Success: out.Success, Message: out.Message})
}

func (h *handler) etfStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, h.app.Governance.ETFStatus(mux.Vars(r)["etfId"]))
}

// =============================================================================
// Read-only
// =============================================================================

func (h *handler) feeSchedules(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"schedules":        h.app.Fees.Schedules(),
		"depositFeeBps":    fees.DepositFeeBps,
		"withdrawalFeeBps": fees.WithdrawalFeeBps,
		"voteFeeDrops":     fees.VoteFeeDrops,
	})
}

func (h *handler) submissions(w http.ResponseWriter, r *http.Request) {
	limit := h.listLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			se := errors.BadRequest("limit must be a positive integer")
			httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, nil)
			return
		}
		if n < limit {
			limit = n
		}
	}
	subs, err := h.app.Submissions.List(r.Context(), limit)
	if err != nil {
		se := errors.Internal("list submissions", err)
		httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, nil)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, subs)
}

func (h *handler) submission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.app.Submissions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, sub)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"services": h.app.Services(),
	})
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := httputil.DecodeJSON(r.Body, dst); err != nil {
		se := errors.Validation(err)
		httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, nil)
		return false
	}
	return true
}
