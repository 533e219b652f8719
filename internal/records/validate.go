package records

import (
	"regexp"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

var recordingIDPattern = regexp.MustCompile(`^\w{40}-\d{13}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the `recording_id` rule
// registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("recording_id", func(fl validator.FieldLevel) bool {
			return recordingIDPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

type idBatch struct {
	IDs []string `validate:"required,min=1,dive,recording_id"`
}

// ValidateIDs checks that every id has the `<40 word chars>-<13 digits>`
// shape the service accepts.
func ValidateIDs(ids []ID) error {
	batch := idBatch{IDs: make([]string, len(ids))}
	for i, id := range ids {
		batch.IDs[i] = string(id)
	}
	err := Validator().Struct(batch)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate recording ids")
	}
	for _, fe := range verrs {
		if fe.Tag() == "recording_id" {
			return errors.Errorf("invalid recording id %q", fe.Value())
		}
	}
	return errors.New("no recording ids given")
}
