package queue

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shuldan/queues/pkg/errors"
)

var validate = validator.New()

// ValidateConfig checks a driver settings struct against its `validate`
// tags and reports the failures as ErrInvalidDriverConfig.
func ValidateConfig(driver string, settings any) error {
	err := validate.Struct(settings)
	if err == nil {
		return nil
	}

	var reasons []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			reasons = append(reasons, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	} else {
		reasons = append(reasons, err.Error())
	}

	return ErrInvalidDriverConfig.
		WithDetail("driver", driver).
		WithDetail("reason", strings.Join(reasons, "; ")).
		WithCause(err)
}
