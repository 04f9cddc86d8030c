package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/adpilot/backend/internal/apierrors"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// decodeAndValidate decodes a JSON body into dst and runs struct validation.
func decodeAndValidate(r *http.Request, validate *validator.Validate, dst any) *apierrors.APIError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierrors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var details []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				details = append(details, fmt.Sprintf("%s failed %s validation", ve.Field(), ve.Tag()))
			}
		}
		return apierrors.NewValidationError("request validation failed", details)
	}
	return nil
}
