package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator.Validate is safe for concurrent use.
var validate = validator.New()

// SaveInput is what the save flow accepts from the UI.
type SaveInput struct {
	URL     string   `json:"url" validate:"required,url"`
	Note    string   `json:"note" validate:"max=200"`
	GroupID *string  `json:"group_id,omitempty"`
	Labels  []string `json:"labels,omitempty" validate:"dive,min=1,max=50"`
	// Force saves even when a duplicate is detected.
	Force bool `json:"-"`
}

// GroupInput is what group creation and rename accept.
type GroupInput struct {
	Name  string `json:"name" validate:"required,min=1,max=50"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// Validate checks in before any network call is made. Failures are returned
// with KindValidation and report the offending fields.
func Validate(op string, in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewError(op, KindValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return NewError(op, KindValidation, fmt.Errorf("invalid fields: %s", strings.Join(fields, ", ")))
}

// ValidatePatch rejects over-length notes before the patch leaves the client.
func ValidatePatch(p ItemPatch) error {
	return Validate("update item", p)
}
