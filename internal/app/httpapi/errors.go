package httpapi

import (
	stderrors "errors"
	"net/http"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/etf"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/feedistribution"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/governance"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/ledgerops"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage"
	"github.com/R3E-Network/xrpl_service_layer/internal/errors"
	"github.com/R3E-Network/xrpl_service_layer/internal/httputil"
)

// governanceRejections are answered with {success:false, message}.
var governanceRejections = []struct {
	err    error
	status int
}{
	{governance.ErrCooldownActive, http.StatusConflict},
	{governance.ErrOverridePending, http.StatusConflict},
	{governance.ErrUnauthorized, http.StatusForbidden},
	{governance.ErrVoteLimit, http.StatusForbidden},
}

// toServiceError maps service errors onto HTTP semantics. Anything unknown is
// a ledger failure and keeps its message, as clients expect.
func toServiceError(err error) *errors.ServiceError {
	if se := errors.GetServiceError(err); se != nil {
		return se
	}
	switch {
	case stderrors.Is(err, ledgerops.ErrInvalidRequest),
		stderrors.Is(err, etf.ErrInvalidRequest),
		stderrors.Is(err, governance.ErrInvalidRequest):
		return errors.Validation(err)
	case stderrors.Is(err, storage.ErrNotFound):
		return errors.New(errors.CodeNotFound, http.StatusNotFound, err.Error(), err)
	case stderrors.Is(err, ledgerops.ErrNotConfigured),
		stderrors.Is(err, etf.ErrTreasuryUnavailable),
		stderrors.Is(err, feedistribution.ErrMissingAddress):
		return errors.New(errors.CodeUnavailable, http.StatusServiceUnavailable, err.Error(), err)
	}
	se := errors.Ledger(err)
	var distErr *feedistribution.DistributionError
	if stderrors.As(err, &distErr) {
		se.WithDetails("category", distErr.Category)
	}
	return se
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, rej := range governanceRejections {
		if stderrors.Is(err, rej.err) {
			httputil.WriteJSON(w, rej.status, httputil.Envelope{Success: false, Message: rej.err.Error()})
			return
		}
	}
	se := toServiceError(err)
	httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
}
