// Package validate contains the support for validating models.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// validate holds the settings and caches for validating request struct values.
var validate *validator.Validate

// translator is a cache of locale and translation information.
var translator ut.Translator

func init() {

	// Instantiate a validator.
	validate = validator.New()

	// Create a translator for english so the error messages are
	// more human-readable than technical.
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")

	// Register the english error messages for use.
	en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Account ids are hex encoded addresses.
	validate.RegisterValidation("account", func(fl validator.FieldLevel) bool {
		return common.IsHexAddress(fl.Field().String())
	})

	validate.RegisterTranslation("account", translator,
		func(ut ut.Translator) error {
			return ut.Add("account", "{0} must be a hex encoded account id", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("account", fe.Field())
			return t
		},
	)
}

// Check validates the provided model against it's declared tags.
func Check(val any) errs.List {
	return CheckAt("", val)
}

// CheckAt validates the provided model and reports every field path below
// the specified root, like "asset" for a decoded transaction payload.
func CheckAt(root string, val any) errs.List {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return errs.Of(errs.New(errs.KindStructural, "", root, err.Error()))
	}

	list := make(errs.List, 0, len(verrors))
	for _, verror := range verrors {
		expected := verror.Tag()
		if verror.Param() != "" {
			expected += "=" + verror.Param()
		}

		e := errs.New(errs.KindStructural, "", fieldPath(root, verror.Namespace()), verror.Translate(translator))
		list = append(list, e.WithValues(verror.Value(), expected))
	}

	return list
}

// fieldPath drops the top level struct name from the namespace.
func fieldPath(root string, namespace string) string {
	path := namespace
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		path = namespace[i+1:]
	}

	if root == "" {
		return path
	}
	return root + "." + path
}
