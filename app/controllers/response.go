package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"socialpost/app/middleware"
	"socialpost/app/repositories"
	"socialpost/app/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, errorBody{Error: message})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var (
		verr      *services.ValidationError
		sched     *services.SchedulingConflict
		conflict  *services.ConflictError
		credits   *services.InsufficientCreditsError
		genFailed *services.GenerationFailure
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &sched), errors.As(err, &conflict), errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &credits):
		return http.StatusPaymentRequired
	case errors.As(err, &genFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// sendServiceError writes err using the status from statusFor. Internal
// errors are logged and their text is not exposed.
func sendServiceError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body = errorBody{Error: verr.Message, Field: verr.Field}
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("request_id", middleware.RequestIDFrom(r.Context())).Error("request failed")
		body = errorBody{Error: "internal server error"}
	}
	sendJSON(w, status, body)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &services.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

func postID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, &services.ValidationError{Field: "id", Message: "invalid post id"}
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &services.ValidationError{Field: name, Message: "must be a number"}
	}
	return n, nil
}
