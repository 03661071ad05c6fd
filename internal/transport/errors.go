package transport

import (
	"encoding/json"
	"net/http"

	"github.com/metafirst/supervisor/internal/mcp"
)

var codeStatus = map[string]int{
	mcp.CodeValidation:      http.StatusBadRequest,
	mcp.CodeInvalidParams:   http.StatusBadRequest,
	mcp.CodePermission:      http.StatusForbidden,
	mcp.CodeNotFound:        http.StatusNotFound,
	mcp.CodeUnknownMethod:   http.StatusNotFound,
	mcp.CodeInvalidState:    http.StatusConflict,
	mcp.CodeAlreadyAssigned: http.StatusConflict,
	mcp.CodeNoActiveSchema:  http.StatusConflict,
	mcp.CodeFieldType:       http.StatusUnprocessableEntity,
	mcp.CodeRuleDefinition:  http.StatusUnprocessableEntity,
}

// StatusFor returns the HTTP status for a mapped error code.
func StatusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type problem struct {
	Error *mcp.APIError `json:"error"`
}

func writeAPIError(w http.ResponseWriter, apiErr *mcp.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(apiErr.Code))
	_ = json.NewEncoder(w).Encode(problem{Error: apiErr})
}

func writeProblem(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{Error: &mcp.APIError{Code: code, Message: message}})
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
