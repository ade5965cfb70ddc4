package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/target/rentdesk/internal/errors"
)

// maxBodyBytes caps JSON and form bodies accepted by the auth endpoints.
const maxBodyBytes = 64 << 10

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError to adhere to the ≤3 params guideline.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteAppError maps an AppError to its HTTP status and writes it as JSON.
// Errors outside the taxonomy become a 500 without leaking their message.
func WriteAppError(w http.ResponseWriter, err error) {
	status, code := appErrorStatus(err)
	if code == "" {
		code = string(apperrors.ErrCodeInternal)
	}

	body := map[string]string{"error": code, "message": err.Error()}
	if status >= http.StatusInternalServerError {
		body["message"] = http.StatusText(status)
	}
	if field := apperrors.GetField(err); field != "" {
		body["field"] = field
	}
	WriteJSON(w, status, body)
}

// appErrorStatus returns the HTTP status and code of an AppError. The code is
// empty for errors outside the taxonomy.
func appErrorStatus(err error) (int, string) {
	return apperrors.HTTPStatus(err), string(apperrors.GetCode(err))
}

// isJSONBody reports whether the request body is declared as JSON.
func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// formInput reads a flat set of string fields from either a JSON object or a
// form-encoded body. Multi-valued form fields keep their first value.
func formInput(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if isJSONBody(r) {
		fields := map[string]string{}
		if err := json.NewDecoder(body).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid JSON body")
		}
		return fields, nil
	}

	r.Body = body
	if err := r.ParseForm(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid form body")
	}
	fields := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields, nil
}
