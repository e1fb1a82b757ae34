package dto

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate = validator.New()
	trans    ut.Translator

	initOnce sync.Once
	initErr  error

	airportCodePattern = regexp.MustCompile(`^[A-Za-z]{3,4}$`)
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type Response struct {
	Message string `json:"message"`
}

// InitValidator registers translations, json tag names and the custom
// airport code rule. Safe to call more than once.
func InitValidator() error {
	initOnce.Do(func() {
		initErr = initValidator()
	})

	return initErr
}

func initValidator() error {
	uni := ut.New(en.New(), en.New())
	trans, _ = uni.GetTranslator("en")

	err := enTranslations.RegisterDefaultTranslations(Validate, trans)
	if err != nil {
		return err
	}

	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err = Validate.RegisterValidation("airport", func(fl validator.FieldLevel) bool {
		return airportCodePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return err
	}

	return Validate.RegisterTranslation("airport", trans,
		func(ut ut.Translator) error {
			return ut.Add("airport", "{0} must be a 3 or 4 letter airport code", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("airport", fe.Field())
			return msg
		},
	)
}

func ValidateSingleError(req interface{}) error {
	if err := Validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return errors.New(ve[0].Translate(trans))
		}
		return err
	}
	return nil
}
