// Package validator provides struct validation based on go-playground/validator
// with English messages and config-style field names.
package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator wraps go-playground/validator with a translator.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

var (
	globalValidator *Validator
	once            sync.Once
)

// Global returns the process-wide validator.
func Global() *Validator {
	once.Do(func() {
		globalValidator = New()
	})
	return globalValidator
}

// New creates a validator. Field names in messages come from the
// mapstructure tag, then the json tag, so they match config keys.
func New() *Validator {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"mapstructure", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	uni := ut.New(en.New())
	v.trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v.validate, v.trans)

	v.registerCustomRules()
	return v
}

// registerCustomRules 注册自定义校验规则。
func (v *Validator) registerCustomRules() {
	// regexp: 字符串必须是合法的正则表达式
	_ = v.validate.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	_ = v.validate.RegisterTranslation("regexp", v.trans,
		func(t ut.Translator) error {
			return t.Add("regexp", "{0} must be a valid regular expression", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("regexp", fe.Namespace())
			return msg
		},
	)
}

// Struct validates s and returns one translated error per failed field.
func (v *Validator) Struct(s interface{}) []error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []error{err}
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, errors.New(fe.Translate(v.trans)))
	}
	return errs
}

// Var validates a single value against tag.
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// Struct validates s with the global validator.
func Struct(s interface{}) []error {
	return Global().Struct(s)
}
