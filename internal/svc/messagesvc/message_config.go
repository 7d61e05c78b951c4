package messagesvc

import (
	"errors"
	"fmt"

	"github.com/mkrupp/homecase-messenger/internal/domain"
)

// ErrInvalidReadPolicy is returned for a read policy other than "overwrite" or "first".
var ErrInvalidReadPolicy = errors.New("invalid read policy")

// MessageConfig holds configuration parameters for the message service.
type MessageConfig struct {
	// ReadPolicy decides whether marking a message read again overwrites
	// the stored time ("overwrite") or keeps the first one ("first").
	ReadPolicy string `env:"READ_POLICY" default:"overwrite"`
}

// Validate implements config.Validator.
func (c MessageConfig) Validate() error {
	if !domain.ReadPolicy(c.ReadPolicy).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidReadPolicy, c.ReadPolicy)
	}

	return nil
}
