package xrpl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/R3E-Network/xrpl_service_layer/internal/httputil"
)

type rpcRequest struct {
	Method string                   `json:"method"`
	Params []map[string]interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
}

// httpTransport speaks rippled's JSON-RPC dialect over HTTP.
type httpTransport struct {
	client *httputil.JSONClient
}

func newHTTPTransport(endpoint string, timeout time.Duration, httpClient *http.Client) *httpTransport {
	return &httpTransport{
		client: httputil.NewJSONClient(httputil.JSONClientConfig{
			BaseURL:    endpoint,
			Timeout:    timeout,
			HTTPClient: httpClient,
			// Client.Call owns retries so submit is never repeated.
			MaxRetries: -1,
		}),
	}
}

func (t *httpTransport) call(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	var resp rpcResponse
	if err := t.client.PostJSON(ctx, "", rpcRequest{Method: method, Params: []map[string]interface{}{params}}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(resp.Result) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	if err := resultError(resp.Result); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (t *httpTransport) close() error { return nil }
