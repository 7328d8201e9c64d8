package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(InstrumentHandler)
	router.HandleFunc("/api/governance/etfs/{etfId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/governance/etfs/{etfId}", "418"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/governance/etfs/etf-42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/governance/etfs/{etfId}", "418"))
	assert.Equal(t, before+1, after)
}

func TestCanonicalPath(t *testing.T) {
	assert.Equal(t, "/", canonicalPath(""))
	assert.Equal(t, "/", canonicalPath("/"))
	assert.Equal(t, "/api", canonicalPath("/api/unknown/123"))
}

func TestRecorders(t *testing.T) {
	RecordSubmission("vote", "tesSUCCESS", time.Second)
	RecordSubmission("", "", 0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(ledgerSubmissions.WithLabelValues("unknown", "error")), 1.0)

	before := testutil.ToFloat64(feeDrops.WithLabelValues("deposit", "buybacks"))
	RecordFeePayment("deposit", "buybacks", 250)
	RecordFeePayment("deposit", "buybacks", 0)
	assert.Equal(t, before+250, testutil.ToFloat64(feeDrops.WithLabelValues("deposit", "buybacks")))

	RecordGovernance("proposal", "approved")
	SetActiveCooldowns(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(governanceCooldowns))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordGovernance("vote", "accepted")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "xrpl_gateway_governance_events_total"))
}
