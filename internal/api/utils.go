package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const maxBodyBytes = 64 << 10

// ErrorResponse writes a Response carrying the request id.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSONResponse(w, r, status, Response{
		Success:   false,
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// WriteJSONResponse marshals data before touching the header so a marshal
// failure can still become a 500.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.WarnContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}

// DecodeJSONBody decodes exactly one JSON object into dst, rejecting unknown
// fields and bodies over 64 KiB. Returned errors are safe to show the caller.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return describeDecodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func describeDecodeError(err error) error {
	var (
		syntaxErr    *json.SyntaxError
		typeErr      *json.UnmarshalTypeError
		maxBytesErr  *http.MaxBytesError
		invalidErr   *json.InvalidUnmarshalError
		unknownField = "json: unknown field "
	)
	switch {
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("request body is truncated JSON")
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Errorf("field %q must be %s", typeErr.Field, typeErr.Type)
		}
		return fmt.Errorf("wrong JSON type at offset %d", typeErr.Offset)
	case strings.HasPrefix(err.Error(), unknownField):
		return fmt.Errorf("unknown field %s", strings.TrimPrefix(err.Error(), unknownField))
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body exceeds %d bytes", maxBytesErr.Limit)
	case errors.As(err, &invalidErr):
		panic(fmt.Errorf("DecodeJSONBody needs a non-nil pointer: %w", err))
	default:
		return err
	}
}

// StatusForError maps a service error kind to an HTTP status and a message safe to show callers.
func StatusForError(err error) (int, string) {
	switch types.KindOf(err) {
	case types.KindValidation:
		return http.StatusBadRequest, err.Error()
	case types.KindNotFound:
		return http.StatusNotFound, "Resource not found"
	case types.KindLLM, types.KindPlaces, types.KindWeather:
		return http.StatusBadGateway, "An upstream service is unavailable, please retry later"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
