package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/search/params"
)

// Error codes returned in error bodies.
const (
	codeBadRequest    = "bad_request"
	codeUnauthorized  = "unauthorized"
	codeRateLimited   = "rate_limit_exceeded"
	codeNotFound      = "not_found"
	codeNotAcceptable = "not_acceptable"
	codeUnavailable   = "service_unavailable"
	codeInternal      = "internal_error"
)

// callbackPattern accepts JavaScript identifiers and dotted member paths.
var callbackPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*$`)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(s *Server, w http.ResponseWriter, r *http.Request, err error) bool

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(s *Server, w http.ResponseWriter, r *http.Request, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		s.writeError(w, r, status, code, domain.Message(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range s.errorHandlers {
		if h(s, w, r, err) {
			if errors.Is(err, domain.ErrServiceUnavailable) {
				s.logger.Error("search engine unavailable", zap.Error(err))
			} else {
				s.logger.Debug("request rejected", zap.Error(err))
			}
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	s.writeError(w, r, http.StatusInternalServerError, codeInternal, "Internal Server Error")
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, r, status, errorResponse{Code: code, Message: message})
}

// writeJSON renders v as JSON, or as a JSONP call when the request names a valid callback.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	writeBody(w, r.URL.Query().Get(params.Callback), status, v)
}

func writeBody(w http.ResponseWriter, callback string, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"internal_error","message":"Internal Server Error"}`))
		return
	}

	if callback == "" || !callbackPattern.MatchString(callback) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("/**/" + callback + "("))
	_, _ = w.Write(body)
	_, _ = w.Write([]byte(");"))
}
