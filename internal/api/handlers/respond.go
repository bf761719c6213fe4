package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/av-estimator/engine/internal/api/middleware"
	"github.com/av-estimator/engine/internal/api/types"
	"github.com/av-estimator/engine/internal/api/validators"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/av-estimator/engine/pkg/logger"
	"github.com/av-estimator/engine/pkg/utils"
)

const maxBodyBytes = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorStr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: &types.APIError{Code: string(appErr.CodeInvalid), Message: msg}})
}

// fail writes err with the status its code maps to. Server-side failures are
// logged with the request id since their text is not sent to the client.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := appErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   types.FromAppError(err),
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

func ok(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, types.APIResponse{
		Success: true,
		Data:    data,
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

// okCached writes data with an ETag over its encoding and answers 304 when
// the client already holds it. The request id is left out of the envelope so
// equal data hashes equally.
func okCached(w http.ResponseWriter, r *http.Request, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(types.APIResponse{Success: true, Data: data}); err != nil {
		fail(w, r, appErr.Wrap(err, appErr.CodeInternal, "encode response"))
		return
	}
	tag := utils.ETag(buf.Bytes())
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if utils.ETagMatches(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return appErr.New(appErr.CodeInvalid, "request body too large")
		case errors.Is(err, io.EOF):
			return appErr.New(appErr.CodeInvalid, "request body is empty")
		default:
			return appErr.Wrap(err, appErr.CodeInvalid, "invalid json")
		}
	}
	return validators.Check(dst)
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, appErr.New(appErr.CodeInvalid, "invalid "+name)
	}
	return id, nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 0 {
		return 0, appErr.New(appErr.CodeInvalid, "invalid "+name)
	}
	return n, nil
}

func parseUUID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, appErr.New(appErr.CodeInvalid, field+" must be a uuid")
	}
	return id, nil
}

// currentUser returns the id Auth stored, failing if the route is not behind
// Auth.
func currentUser(r *http.Request) (uuid.UUID, error) {
	uid := middleware.GetUserID(r.Context())
	if uid == uuid.Nil {
		return uuid.Nil, appErr.New(appErr.CodeUnauthorized, "unauthorized")
	}
	return uid, nil
}
