// Package Validation checks request bodies with struct tags and reports
// failures as readable Validation errors.
package Validation

import (
	"errors"
	"reflect"
	"strings"

	"Chronos/AppErrors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()
	// Report json names so messages match the request body.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}
}

// Struct validates v. The returned error is an *AppErrors.Error of kind
// Validation whose "errors" data maps field names to messages.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return AppErrors.Validation("Invalid request")
	}

	fields := make(map[string]string, len(fieldErrors))
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		msg := fe.Translate(translator)
		fields[fe.Field()] = msg
		messages = append(messages, msg)
	}
	return AppErrors.Validation("%s", strings.Join(messages, "; ")).With("errors", fields)
}
