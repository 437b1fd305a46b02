// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	stdhttp "net/http"

	"github.com/wneessen/geosnap/internal/form"
	"github.com/wneessen/geosnap/internal/logger"
	"github.com/wneessen/geosnap/internal/record"
	"github.com/wneessen/geosnap/internal/session"
)

// Message IDs of API errors.
const (
	MsgInvalidRequest      = "Invalid request"
	MsgInvalidCoordinates  = "Please enter valid coordinates"
	MsgRecordNotFound      = "Record not found"
	MsgSessionNotFound     = "Session not found"
	MsgNoPhoto             = "No photo"
	MsgUploadTooLarge      = "Upload too large"
	MsgInternalServerError = "Internal server error"
	MsgCurrentLocation     = "Current location"
)

var (
	errBadRequest         = errors.New("malformed request")
	errInvalidCoordinates = errors.New("coordinates out of range")
	errNoPhoto            = errors.New("record has no photo")
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Service) writeJSON(w stdhttp.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", logger.Err(err))
	}
}

// writeError maps err to a status code and writes its localized message.
func (s *Service) writeError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, msgID := classifyError(err)
	if status >= stdhttp.StatusInternalServerError {
		s.logger.Error("request failed", logger.Err(err), slog.String("method", r.Method),
			slog.String("path", r.URL.Path))
	} else {
		s.logger.Debug("request rejected", logger.Err(err), slog.Int("status", status),
			slog.String("method", r.Method), slog.String("path", r.URL.Path))
	}
	s.writeJSON(w, status, errorResponse{Error: s.translate(msgID)})
}

func classifyError(err error) (int, string) {
	var validationErr *form.ValidationError
	var maxBytesErr *stdhttp.MaxBytesError
	switch {
	case errors.As(err, &validationErr):
		return stdhttp.StatusUnprocessableEntity, validationErr.Message
	case errors.As(err, &maxBytesErr):
		return stdhttp.StatusRequestEntityTooLarge, MsgUploadTooLarge
	case errors.Is(err, session.ErrSessionNotFound):
		return stdhttp.StatusNotFound, MsgSessionNotFound
	case errors.Is(err, record.ErrIndexOutOfRange):
		return stdhttp.StatusNotFound, MsgRecordNotFound
	case errors.Is(err, errNoPhoto):
		return stdhttp.StatusNotFound, MsgNoPhoto
	case errors.Is(err, session.ErrWrongSecret):
		return stdhttp.StatusForbidden, session.MsgWrongPassword
	case errors.Is(err, errInvalidCoordinates):
		return stdhttp.StatusBadRequest, MsgInvalidCoordinates
	case errors.Is(err, errBadRequest):
		return stdhttp.StatusBadRequest, MsgInvalidRequest
	default:
		return stdhttp.StatusInternalServerError, MsgInternalServerError
	}
}
