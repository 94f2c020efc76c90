// Package validation holds the request validation rules shared by the HTTP
// handlers and the Go API client.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// DateLayout wire format of calendar dates
const DateLayout = "2006-01-02"

var (
	nationalIDPattern = regexp.MustCompile(`^[0-9]{8}$`)
	kesPhonePattern   = regexp.MustCompile(`^(\+254|0)[17][0-9]{8}$`)
	mpesaRefPattern   = regexp.MustCompile(`^[A-Z0-9]{10}$`)
)

// FieldErrors field name → message. Implements error so services can return
// it and handlers can map it to a 422.
type FieldErrors map[string]string

// Error summary listing the offending fields
func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// Add records the first message for a field
func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// Merge copies every entry of other not already present
func (f FieldErrors) Merge(other FieldErrors) {
	for k, v := range other {
		f.Add(k, v)
	}
}

// Err nil when empty, so the result can be returned as an error directly
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// AsFieldErrors extracts FieldErrors from err
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ── validator engine ──

var (
	standalone     *validator.Validate
	standaloneOnce sync.Once
	registerOnce   sync.Once
	registerErr    error
)

// RegisterGinRules installs the custom rules on gin's binding engine; call once
// at startup before the router is built.
func RegisterGinRules() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		registerErr = configure(v)
	})
	return registerErr
}

// engine validator reading the same `binding` tags gin uses
func engine() *validator.Validate {
	standaloneOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.SetTagName("binding")
		if err := configure(v); err != nil {
			panic(err)
		}
		standalone = v
	})
	return standalone
}

func configure(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	rules := map[string]validator.Func{
		"national_id": func(fl validator.FieldLevel) bool {
			return IsNationalID(fl.Field().String())
		},
		"kes_phone": func(fl validator.FieldLevel) bool {
			return IsKenyanPhone(fl.Field().String())
		},
		"iso_date": func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil
		},
		"mpesa_ref": func(fl validator.FieldLevel) bool {
			return IsMpesaRef(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// Struct runs the binding tags of s outside gin
func Struct(s interface{}) FieldErrors {
	fields := FieldErrors{}
	if err := engine().Struct(s); err != nil {
		if fe, ok := FromBindError(err); ok {
			return fe
		}
		fields.Add("_", err.Error())
	}
	return fields
}

// FromBindError converts validator errors produced by gin binding into
// FieldErrors. ok is false for errors that are not validation failures
// (malformed JSON, wrong types).
func FromBindError(err error) (FieldErrors, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		fields.Add(fieldKey(fe), message(fe))
	}
	return fields, true
}

// fieldKey json path below the root struct; embedded struct names are skipped
func fieldKey(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 0 {
		parts = parts[1:]
	}
	kept := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		if r := []rune(p)[0]; unicode.IsUpper(r) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return fe.Field()
	}
	return strings.Join(kept, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "national_id":
		return "must be exactly 8 digits"
	case "kes_phone":
		return "must be a Kenyan phone number"
	case "iso_date":
		return "must be a date in YYYY-MM-DD format"
	case "mpesa_ref":
		return "must be 10 letters or digits"
	default:
		return "is invalid"
	}
}
