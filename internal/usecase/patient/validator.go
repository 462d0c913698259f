package patient

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	domainPatient "patient-registration/internal/domain/patient"
	appErrors "patient-registration/pkg/errors"
	"patient-registration/pkg/utils"
)

var (
	phonePattern       = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
	insuranceIDPattern = regexp.MustCompile(`^H\d{9}$`)

	validate = newValidator()
)

var tagMessages = map[string]string{
	"email":          "Invalid email format.",
	"phone":          "Phone number must be in the format (123) 456-7890.",
	"insurance_id":   "Insurance ID must start with 'H' followed by 9 digits (e.g., H123456789).",
	"sex":            "Invalid sex option. Allowed values are Female, Male, N/A.",
	"marital_status": "Marital status must be one of the following: Single, Married, Divorced, Legally Separated, Widowed.",
	"password":       "Password must be at least 8 characters long, include uppercase letters, lowercase letters, numbers, and special characters.",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("insurance_id", func(fl validator.FieldLevel) bool {
		return insuranceIDPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("sex", func(fl validator.FieldLevel) bool {
		return domainPatient.Sex(fl.Field().String()).IsValid()
	}))
	must(v.RegisterValidation("marital_status", func(fl validator.FieldLevel) bool {
		return domainPatient.MaritalStatus(fl.Field().String()).IsValid()
	}))
	must(v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return utils.ValidatePassword(fl.Field().String()) == nil
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidateStruct validates s and reports failures as a VALIDATION_ERROR with
// one message per JSON field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		if _, exists := fields[fe.Field()]; exists {
			continue
		}
		fields[fe.Field()] = fieldMessage(fe)
	}

	return appErrors.NewValidationError(fields)
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}

	label := humanize(fe.Field())
	numeric := fe.Kind() >= reflect.Int && fe.Kind() <= reflect.Float64

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is mandatory", label)
	case "min":
		if numeric {
			return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		if numeric {
			return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in the format YYYY-MM-DD.", label)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

// humanize turns a camelCase JSON name into a sentence-case label,
// keeping acronyms together ("insuranceID" -> "Insurance ID").
func humanize(name string) string {
	runes := []rune(name)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsUpper(cur) && !unicode.IsUpper(prev) ||
			unicode.IsDigit(cur) && !unicode.IsDigit(prev) ||
			unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	words = append(words, string(runes[start:]))

	for i, w := range words {
		if i > 0 && !isAcronym(w) {
			words[i] = strings.ToLower(w)
		}
	}
	if len(words) > 0 && words[0] != "" {
		first := []rune(words[0])
		first[0] = unicode.ToUpper(first[0])
		words[0] = string(first)
	}

	return strings.Join(words, " ")
}

func isAcronym(w string) bool {
	return len(w) > 1 && strings.ToUpper(w) == w
}
