package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/SonghaiFan/metroflow/pkg/errors"
)

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSnapshot,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidStyle:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidTopology:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeStationNotFound, errors.ErrCodeSegmentNotFound,
		errors.ErrCodeTrackNotFound, errors.ErrCodeConnectionNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeStore:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Code: errors.ErrCodeInvalidInput, Message: "request body too large"})
		return
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "code", code, "error", err)
	}
	s.writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

// decode reads a JSON request body into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}
