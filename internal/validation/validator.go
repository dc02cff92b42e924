// Package validation wraps go-playground/validator with a shared instance
// and error messages that use JSON field names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ErrValidation is matched by every validation failure
var ErrValidation = errors.New("validation failed")

// FieldError is a single failed rule
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

func (e FieldError) String() string {
	switch e.Tag {
	case "required", "required_without":
		return e.Field + " is required"
	case "email":
		return e.Field + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field, e.Param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", e.Field, e.Param)
	case "datetime":
		return e.Field + " must be an RFC 3339 timestamp"
	default:
		return fmt.Sprintf("%s failed %s validation", e.Field, e.Tag)
	}
}

// Error is a validation failure with one or more field errors
type Error struct {
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) true for every *Error
func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

// Errorf builds a validation error without field detail
func Errorf(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v and returns *Error on failure
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Message: err.Error()}
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		f := FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
		out.Fields = append(out.Fields, f)
		msgs = append(msgs, f.String())
	}
	out.Message = strings.Join(msgs, "; ")
	return out
}

// Var validates a single value against tag
func Var(name string, v any, tag string) error {
	if err := instance().Var(v, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := FieldError{Field: name, Tag: verrs[0].Tag(), Param: verrs[0].Param()}
			return &Error{Message: f.String(), Fields: []FieldError{f}}
		}
		return &Error{Message: err.Error()}
	}
	return nil
}
