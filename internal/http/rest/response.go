package rest

import (
	"encoding/json"
	"log"
	"net/http"

	apperrors "github.com/civicvoice/civicvoice_api/internal/errors"
	"github.com/civicvoice/civicvoice_api/util"
	"github.com/civicvoice/civicvoice_api/util/tracing"
)

type ServerResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
}

func writeJSONResponse(w http.ResponseWriter, body []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Printf("failed to write response body: %v", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, err error, status string, message string) {
	log.Printf("request failed [%s]: %v", status, err)

	resp := ServerResponse{
		Message: message,
		Status:  status,
	}
	body, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		http.Error(w, message, http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, body, util.StatusCode(status))
}

func respondWithError(err error, message string, status string, tc *tracing.Context) *ServerResponse {
	log.Printf("request %v failed [%s]: %v", tc, status, err)

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

// respondWithServiceError maps a structured service error onto a response,
// using the error's own kind and message.
func respondWithServiceError(err error, tc *tracing.Context) *ServerResponse {
	structured := apperrors.AsStructured(err)
	return respondWithError(structured, structured.Message, structured.Status(), tc)
}
