package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tokenledger "custodia/contexts/asset-core/token-ledger"
	"custodia/contexts/asset-core/token-ledger/domain/entities"
	httptransport "custodia/contexts/asset-core/token-ledger/transport/http"
	"custodia/internal/platform/metrics"
)

const (
	testOwnerHex  = "0x0000000000000000000000000000000000000001"
	testHolderHex = "0x0000000000000000000000000000000000000002"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	module := tokenledger.NewInMemoryModule(nil)

	owner, err := entities.ParseAddress(testOwnerHex)
	if err != nil {
		t.Fatalf("owner address: %v", err)
	}
	supply, err := entities.ParseAmount("1000")
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	meta, err := entities.NewTokenMetadata("Custodia Token", "CSTD")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if err := module.Service.Initialize(context.Background(), meta, owner, supply); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	return New(module, metrics.New("custodia-test"), nil, ":0", false)
}

func doRequest(t *testing.T, server *Server, method string, path string, caller string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != "" {
		req.Header.Set("X-Caller-Address", caller)
	}
	recorder := httptest.NewRecorder()
	server.Mux().ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) httptransport.ErrorResponse {
	t.Helper()
	var resp httptransport.ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestMutatingRouteRequiresCallerHeader(t *testing.T) {
	server := newTestServer(t)

	recorder := doRequest(t, server, http.MethodPost, "/v1/ledger/mint", "", `{"to":"`+testHolderHex+`","amount":"1"}`)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if decodeError(t, recorder).Code != "missing_caller" {
		t.Fatalf("unexpected error code")
	}
}

func TestUnauthorizedCallerMapsToForbidden(t *testing.T) {
	server := newTestServer(t)

	recorder := doRequest(t, server, http.MethodPost, "/v1/ledger/mint", testHolderHex,
		`{"to":"`+testHolderHex+`","amount":"1"}`)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
	if decodeError(t, recorder).Code != "unauthorized" {
		t.Fatalf("unexpected error code")
	}
}

func TestMalformedAddressMapsToBadRequest(t *testing.T) {
	server := newTestServer(t)

	recorder := doRequest(t, server, http.MethodGet, "/v1/ledger/accounts/not-an-address", "", "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if decodeError(t, recorder).Code != "invalid_address" {
		t.Fatalf("unexpected error code")
	}
}

func TestDuplicateBlacklistMapsToConflict(t *testing.T) {
	server := newTestServer(t)
	body := `{"account":"` + testHolderHex + `"}`

	recorder := doRequest(t, server, http.MethodPost, "/v1/ledger/blacklist", testOwnerHex, body)
	if recorder.Code != http.StatusOK {
		t.Fatalf("first add should succeed, got %d", recorder.Code)
	}
	recorder = doRequest(t, server, http.MethodPost, "/v1/ledger/blacklist", testOwnerHex, body)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}
	if decodeError(t, recorder).Code != "already_listed" {
		t.Fatalf("unexpected error code")
	}
}

func TestLockedFundsMapsToUnprocessable(t *testing.T) {
	server := newTestServer(t)

	recorder := doRequest(t, server, http.MethodPost, "/v1/ledger/accounts/"+testOwnerHex+"/lock",
		testOwnerHex, `{"amount":"1000"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("lock should succeed, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doRequest(t, server, http.MethodPost, "/v1/ledger/transfer", testOwnerHex,
		`{"to":"`+testHolderHex+`","amount":"1"}`)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", recorder.Code)
	}
	if decodeError(t, recorder).Code != "locked_funds" {
		t.Fatalf("unexpected error code")
	}
}

func TestInsufficientBalanceMapsToUnprocessable(t *testing.T) {
	server := newTestServer(t)

	recorder := doRequest(t, server, http.MethodPost, "/v1/ledger/accounts/"+testHolderHex+"/lock",
		testOwnerHex, `{"amount":"5"}`)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", recorder.Code)
	}
	if decodeError(t, recorder).Code != "insufficient_balance" {
		t.Fatalf("unexpected error code")
	}
}

func TestReadRoutes(t *testing.T) {
	server := newTestServer(t)

	recorder := doRequest(t, server, http.MethodGet, "/v1/ledger/meta", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("meta should succeed, got %d", recorder.Code)
	}
	var meta httptransport.TokenMetaResponse
	if err := json.NewDecoder(recorder.Body).Decode(&meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta.Data.Symbol != "CSTD" || meta.Data.Owner != testOwnerHex {
		t.Fatalf("unexpected metadata: %+v", meta.Data)
	}

	recorder = doRequest(t, server, http.MethodGet, "/v1/ledger/supply", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("supply should succeed, got %d", recorder.Code)
	}
	var supply httptransport.SupplyResponse
	if err := json.NewDecoder(recorder.Body).Decode(&supply); err != nil {
		t.Fatalf("decode supply: %v", err)
	}
	if supply.Data.TotalSupply != "1000" {
		t.Fatalf("expected supply 1000, got %s", supply.Data.TotalSupply)
	}

	recorder = doRequest(t, server, http.MethodGet, "/v1/ledger/accounts/"+testOwnerHex, "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("account should succeed, got %d", recorder.Code)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	server := newTestServer(t)

	recorder := doRequest(t, server, http.MethodPost, "/v1/ledger/transfer", testOwnerHex, "{not json")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if decodeError(t, recorder).Code != "invalid_json" {
		t.Fatalf("unexpected error code")
	}
}

func TestMetricsEndpointExposesOperationCounters(t *testing.T) {
	server := newTestServer(t)

	recorder := doRequest(t, server, http.MethodPost, "/v1/ledger/mint", testOwnerHex,
		`{"to":"`+testHolderHex+`","amount":"1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("mint should succeed, got %d", recorder.Code)
	}

	recorder = doRequest(t, server, http.MethodGet, "/metrics", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("metrics should succeed, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "custodia_ledger_operations_total") {
		t.Fatalf("operations counter missing from metrics output")
	}
	if !strings.Contains(body, "custodia_http_request_duration_seconds") {
		t.Fatalf("request histogram missing from metrics output")
	}
}
