package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/notice"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

type errorBody struct {
	Code      errors.Code    `json:"code"`
	Message   string         `json:"message"`
	Conflicts []string       `json:"conflicts,omitempty"`
	Notice    *notice.Notice `json:"notice,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeOverlap, errors.ErrCodeConflict, errors.ErrCodeMissingSelection:
		return http.StatusConflict
	case errors.ErrCodeValidation, errors.ErrCodeInvalidEmail, errors.ErrCodeWeakPassword:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeUserNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized, errors.ErrCodeWrongPassword, errors.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as {"error": {...}}. Server errors are logged;
// uncoded ones are reported with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	body := errorBody{Code: code, Message: errors.UserMessage(err)}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if code == "" {
			body.Code = errors.ErrCodeInternal
			body.Message = "internal error"
		}
	}
	if code == errors.ErrCodeOverlap {
		body.Conflicts = errors.Conflicts(err)
	}
	if n, ok := notice.FromError(err); ok {
		body.Notice = &n
	}
	writeJSON(w, status, map[string]errorBody{"error": body})
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
