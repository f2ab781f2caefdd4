package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"crudview/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var errRequired = errors.New("This field is required.")

// inputTimeLayouts are tried in order when cleaning time fields.
var inputTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"}

// clean converts a raw submitted value into the field's Go type.
func clean(fld model.Field, raw string, present bool) (any, error) {
	if fld.Kind == model.KindBool {
		return cleanBool(raw, present), nil
	}

	raw = strings.TrimSpace(raw)
	if tag := tagFor(fld); tag != "" {
		if err := validate.Var(raw, tag); err != nil {
			return nil, translate(err, raw)
		}
	}

	switch fld.Kind {
	case model.KindInt:
		if raw == "" {
			return int64(0), nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.New("Enter a whole number.")
		}
		return n, nil
	case model.KindUUID:
		if raw == "" {
			return uuid.Nil, nil
		}
		return uuid.MustParse(raw), nil
	case model.KindTime:
		if raw == "" {
			return time.Time{}, nil
		}
		for _, layout := range inputTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, errors.New("Enter a valid date/time.")
	default:
		return raw, nil
	}
}

// tagFor builds the validator tag expressing the field's constraints.
func tagFor(fld model.Field) string {
	var rules []string
	if fld.Required {
		rules = append(rules, "required")
	} else {
		rules = append(rules, "omitempty")
	}
	switch fld.Kind {
	case model.KindURL:
		rules = append(rules, "url")
	case model.KindUUID:
		rules = append(rules, "uuid")
	}
	if fld.MaxLength > 0 {
		rules = append(rules, "max="+strconv.Itoa(fld.MaxLength))
	}
	if len(rules) == 1 && rules[0] == "omitempty" {
		return ""
	}
	return strings.Join(rules, ",")
}

func translate(err error, raw string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return errRequired
	case "url":
		return errors.New("Enter a valid URL.")
	case "uuid":
		return errors.New("Enter a valid UUID.")
	case "max":
		return fmt.Errorf("Ensure this value has at most %s characters (it has %d).", fe.Param(), utf8.RuneCountInString(raw))
	default:
		return fmt.Errorf("Enter a valid value (%s).", fe.Tag())
	}
}

// cleanBool follows checkbox semantics: a missing value is false.
func cleanBool(raw string, present bool) bool {
	if !present {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "false", "0", "off", "no":
		return false
	}
	return true
}
