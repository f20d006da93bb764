package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/thedigitalgifter/gifter/internal/models"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("pack", validateKnownPack)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// A pack id is valid only if it names a pack from the catalog
func validateKnownPack(fl validator.FieldLevel) bool {
	_, ok := models.PackByID(fl.Field().String())
	return ok
}
