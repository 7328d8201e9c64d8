package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/R3E-Network/xrpl_service_layer/internal/errors"
	"github.com/R3E-Network/xrpl_service_layer/internal/httputil"
	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// Recovery turns handler panics into a 500 envelope.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.NewDefault("http")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).
					WithField("panic", fmt.Sprint(rec)).
					WithField("stack", string(debug.Stack())).
					Error("handler panic")
				se := errors.Internal("internal server error", nil)
				httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
