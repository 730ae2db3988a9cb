package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Failed to encode response:", err)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteServiceError maps the error taxonomy to a status code.
// Unexpected errors are logged and answered with fallback only.
func WriteServiceError(w http.ResponseWriter, err error, fallback string) {
	var nf *appErrors.NotFoundError
	switch {
	case appErrors.IsValidation(err):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &nf):
		WriteError(w, http.StatusNotFound, capitalize(nf.Resource)+" not found")
	case appErrors.IsConflict(err):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("❌ %s: %v", fallback, err)
		WriteError(w, http.StatusInternalServerError, fallback)
	}
}

// ParseID reads the {id} route parameter. It must be a positive integer.
func ParseID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// DecodeAndValidate decodes the JSON body into dst and runs its validate tags.
// On failure it writes the 400 response itself and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			WriteError(w, http.StatusBadRequest, "invalid body")
			return false
		}
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, validationMessage(fe))
		}
		WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Validation failed",
			"details": details,
		})
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "min", "max":
		return fe.Field() + " is out of range (" + fe.Tag() + "=" + fe.Param() + ")"
	default:
		return fe.Field() + " is invalid"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
