// Package validation configures the request validator shared with gin's binding.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	once sync.Once

	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// custom tags and their messages
const (
	questionTypeTag  = "question_type"
	questionTypeText = "{0} must be one of MSA, MMA, TOF, SAQ, MTF, ORD, FIB"

	slugTag  = "slug"
	slugText = "{0} may only contain lowercase letters, numbers and dashes"

	paymentMethodTag  = "payment_method"
	paymentMethodText = "{0} must be one of stripe, razorpay, bank"
)

var questionTypes = map[string]bool{
	"MSA": true, "MMA": true, "TOF": true, "SAQ": true, "MTF": true, "ORD": true, "FIB": true,
}

var paymentMethods = map[string]bool{
	"stripe": true, "razorpay": true, "bank": true,
}

// Setup installs JSON field names, english translations and the custom tags on
// gin's validator engine. Safe to call more than once.
func Setup() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			v = validator.New()
			v.SetTagName("binding")
		}
		Validate = v

		_en := en.New()
		uni := ut.New(_en, _en)
		Translator, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

		Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = Validate.RegisterValidation(questionTypeTag, func(fl validator.FieldLevel) bool {
			return questionTypes[fl.Field().String()]
		})
		registerTranslation(questionTypeTag, questionTypeText)

		_ = Validate.RegisterValidation(slugTag, func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || slugRegex.MatchString(s)
		})
		registerTranslation(slugTag, slugText)

		_ = Validate.RegisterValidation(paymentMethodTag, func(fl validator.FieldLevel) bool {
			return paymentMethods[fl.Field().String()]
		})
		registerTranslation(paymentMethodTag, paymentMethodText)
	})
}

func registerTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates a value outside of request binding.
func Struct(v any) error {
	Setup()
	return Validate.Struct(v)
}

// Message renders a field error with the registered translations.
func Message(fe validator.FieldError) string {
	Setup()
	return fe.Translate(Translator)
}
