package v1

import (
	"errors"
	"fmt"
	"net/http"

	"trendora-backend/internal/domain"
	"trendora-backend/pkg/logger"
	"trendora-backend/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New()

// kindStatus maps error kinds to HTTP status codes. Handlers never
// inspect error message text.
var kindStatus = map[domain.ErrorKind]int{
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindForbidden:         http.StatusForbidden,
	domain.KindConflict:          http.StatusConflict,
	domain.KindInvalidInput:      http.StatusBadRequest,
	domain.KindInsufficientStock: http.StatusBadRequest,
	domain.KindInvalidTransition: http.StatusBadRequest,
	domain.KindEmptyCart:         http.StatusBadRequest,
	domain.KindInternal:          http.StatusInternalServerError,
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, ok := kindStatus[domain.KindOf(err)]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "internal server error"
	if status != http.StatusInternalServerError {
		var de *domain.Error
		if errors.As(err, &de) {
			message = de.Message
		}
	} else {
		log := logger.WithContext(r.Context())
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	utils.WriteError(w, status, message)
}

// decodeJSON parses and validates a request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.InvalidInputf("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.InvalidInputf("invalid field %q (%s)", verrs[0].Field(), verrs[0].Tag())
		}
		return domain.InvalidInputf("invalid request body")
	}
	return nil
}

// userFrom returns the authenticated user placed by the auth middleware.
func userFrom(r *http.Request) (*domain.User, error) {
	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("no user in context")
	}
	return user, nil
}
