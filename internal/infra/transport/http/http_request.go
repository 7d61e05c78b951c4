package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mkrupp/homecase-messenger/internal/domain"
)

// MaxBodySize limits every JSON request body.
const MaxBodySize = 1 << 20

//nolint:gochecknoglobals
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON name
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	return v
}

// DecodeJSON decodes the request body into dst and validates its `validate` tags.
// Every failure wraps domain.ErrInvalidRequest.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Join(domain.ErrInvalidRequest, fmt.Errorf("decode body: %w", err))
	}

	if err := validate.Struct(dst); err != nil {
		return errors.Join(domain.ErrInvalidRequest, fmt.Errorf("validate body: %w", err))
	}

	return nil
}

// ValidationMessage renders a client facing message for a DecodeJSON error.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return http.StatusText(http.StatusBadRequest)
	}

	fe := verrs[0]

	return fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
}
