package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var std = New()

// New returns a validator that reports field names by their json tag, so the
// errors a client sees match the payload it sent.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Check validates v against its struct tags and returns the offending fields
// keyed by json name, each mapped to the failed rule. A nil map means valid.
func Check(v interface{}) map[string]string {
	err := std.Struct(v)
	if err == nil {
		return nil
	}
	fields := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
