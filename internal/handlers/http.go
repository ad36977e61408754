package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/pokerleague/internal/errors"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest             = "BAD_REQUEST"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeConflict               = "CONFLICT"
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeInternalServer         = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
	ErrCodeMissingEliminator      = "MISSING_ELIMINATOR"
	ErrCodeImbalancedDistribution = "IMBALANCED_DISTRIBUTION"
	ErrCodeIncompletePositions    = "INCOMPLETE_POSITIONS"
	ErrCodeRoundNotEliminated     = "ROUND_NOT_ELIMINATED"
	ErrCodeAlreadyCompleted       = "ALREADY_COMPLETED"
	ErrCodeDuplicateRoundNumber   = "DUPLICATE_ROUND_NUMBER"
	ErrCodeRoundAlreadyActive     = "ROUND_ALREADY_ACTIVE"
	ErrCodeTransientIO            = "TRANSIENT_IO_ERROR"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrBadRequest     = &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: "Bad request"}
	ErrUnauthorized   = &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: "Unauthorized"}
	ErrNotFound       = &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: "Not found"}
	ErrInternalServer = &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
)

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// Unauthorized creates a 401 error with custom message
func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: message}
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a 409 error with custom message
func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: message}
}

// InternalError creates a 500 error, logs the original error
func InternalError(err error) *APIError {
	log.Printf("Internal error: %v", err)
	return &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

// respondSuccess writes a 200 OK with a message
func respondSuccess(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// respondError writes an error response
func respondError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		// Convert service errors to appropriate API errors
		apiErr = ToAPIError(err)
	}
	if apiErr.Status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes JSON from request body into the target
func decodeJSON(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if err == io.EOF {
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// decodeOptionalJSON is decodeJSON that accepts an empty body
func decodeOptionalJSON(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil && err != io.EOF {
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// parseIDParam extracts and parses an integer URL parameter
func parseIDParam(r *http.Request, name string) (int64, error) {
	param := chi.URLParam(r, name)
	if param == "" {
		return 0, BadRequest("Missing " + name + " parameter")
	}
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		return 0, BadRequest("Invalid " + name + " parameter")
	}
	return id, nil
}

// parseIntQuery returns the integer query parameter name, or def when absent
func parseIntQuery(r *http.Request, name string, def int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, BadRequest("Invalid " + name + " query parameter")
	}
	return n, nil
}

// kindStatus maps application error kinds to HTTP status and code
var kindStatus = map[errors.Kind]struct {
	status int
	code   string
}{
	errors.ErrNotFound:               {http.StatusNotFound, ErrCodeNotFound},
	errors.ErrValidation:             {http.StatusBadRequest, ErrCodeValidation},
	errors.ErrInvalidInput:           {http.StatusBadRequest, ErrCodeValidation},
	errors.ErrConflict:               {http.StatusConflict, ErrCodeConflict},
	errors.ErrInvalidTransition:      {http.StatusConflict, ErrCodeInvalidTransition},
	errors.ErrMissingEliminator:      {http.StatusUnprocessableEntity, ErrCodeMissingEliminator},
	errors.ErrImbalancedDistribution: {http.StatusUnprocessableEntity, ErrCodeImbalancedDistribution},
	errors.ErrIncompletePositions:    {http.StatusUnprocessableEntity, ErrCodeIncompletePositions},
	errors.ErrRoundNotEliminated:     {http.StatusConflict, ErrCodeRoundNotEliminated},
	errors.ErrAlreadyCompleted:       {http.StatusConflict, ErrCodeAlreadyCompleted},
	errors.ErrDuplicateRoundNumber:   {http.StatusConflict, ErrCodeDuplicateRoundNumber},
	errors.ErrRoundAlreadyActive:     {http.StatusConflict, ErrCodeRoundAlreadyActive},
	errors.ErrTransientIO:            {http.StatusServiceUnavailable, ErrCodeTransientIO},
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(err error) *APIError {
	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		if m, ok := kindStatus[appErr.Kind]; ok {
			return &APIError{Status: m.status, Code: m.code, Message: appErr.Message}
		}
	}
	return InternalError(err)
}
