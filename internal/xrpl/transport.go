package xrpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrUnsupportedScheme is returned for node URLs that are not http(s) or ws(s).
var ErrUnsupportedScheme = errors.New("xrpl: unsupported node url scheme")

// RPCError is an error reported by the node for a single request.
type RPCError struct {
	Code    string `json:"error"`
	Number  int    `json:"error_code,omitempty"`
	Message string `json:"error_message,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("xrpl: rpc error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("xrpl: rpc error %s", e.Code)
}

// IsRPCError reports whether err is an RPCError with the given code.
func IsRPCError(err error, code string) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// transport carries one request/response exchange with the node. call returns
// the raw result object; node-level errors come back as *RPCError.
type transport interface {
	call(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error)
	close() error
}

func newTransport(rawURL string, timeout time.Duration, httpClient *http.Client) (transport, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse node url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return newHTTPTransport(u.String(), timeout, httpClient), nil
	case "ws", "wss":
		return newWSTransport(u.String(), timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// resultError extracts an error from a result-shaped object (the JSON-RPC result
// or a WebSocket response), nil when status is not "error".
func resultError(raw []byte) error {
	res := gjson.ParseBytes(raw)
	if res.Get("status").String() != "error" && !res.Get("error").Exists() {
		return nil
	}
	code := res.Get("error").String()
	if code == "" {
		code = "unknown"
	}
	return &RPCError{
		Code:    code,
		Number:  int(res.Get("error_code").Int()),
		Message: res.Get("error_message").String(),
	}
}
