package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registered here so struct tags can use it; error is impossible
	// for a non-empty tag with a non-nil fn.
	_ = v.RegisterValidation("highlightcolor", func(fl validator.FieldLevel) bool {
		return Color(fl.Field().String()).Valid()
	})
	return v
}

// ValidateDraft checks a create request and returns a coded
// validation error naming the offending field.
func ValidateDraft(d *Draft) error {
	if strings.TrimSpace(d.Text) == "" {
		return NewError(CodeValidation, "highlight text is required")
	}
	if strings.TrimSpace(d.URL) == "" {
		return NewError(CodeValidation, "highlight url is required")
	}
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if ok := errors.As(err, &verrs); ok && len(verrs) > 0 {
			fe := verrs[0]
			return NewError(CodeValidation, "invalid field %q (%s)", fe.Field(), fe.Tag())
		}
		return NewError(CodeValidation, "invalid draft: %v", err)
	}
	return nil
}

// ValidatePatch checks an update request.
func ValidatePatch(p *Patch) error {
	if p.Color != nil && !p.Color.Valid() {
		return NewError(CodeValidation, "unknown color %q", *p.Color)
	}
	if p.Note != nil && len(*p.Note) > 2000 {
		return NewError(CodeValidation, "note exceeds maximum length")
	}
	if p.Tags != nil && len(*p.Tags) > 16 {
		return NewError(CodeValidation, "too many tags")
	}
	return nil
}
