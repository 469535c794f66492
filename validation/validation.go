package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

var (
	emailRe       = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	productCodeRe = regexp.MustCompile(`^[A-Za-z]{3}-\d{3}$`)
	phoneRe       = regexp.MustCompile(`^\d{7,10}$`)
)

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func PositiveInt(field string, val int64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeInt(field string, val, minVal, maxVal int, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

func MaxLen(field, value string, n int, v Violations) {
	if len([]rune(value)) > n {
		v[field] = "too_long"
	}
}

// Email accepts an empty value; combine with Required when mandatory.
func Email(field, value string, v Violations) {
	if value != "" && !emailRe.MatchString(value) {
		v[field] = "invalid_email"
	}
}

// Phone accepts an empty value or 7 to 10 digits.
func Phone(field, value string, v Violations) {
	if value != "" && !phoneRe.MatchString(value) {
		v[field] = "invalid_phone"
	}
}

// ProductCode enforces three letters, a dash and three digits (ABC-123).
func ProductCode(field, value string, v Violations) {
	if !productCodeRe.MatchString(value) {
		v[field] = "invalid_product_code"
	}
}

// Password requires at least 8 characters including a digit.
func Password(field, value string, v Violations) {
	if len(value) < 8 {
		v[field] = "password_too_short"
		return
	}
	if !strings.ContainsFunc(value, unicode.IsDigit) {
		v[field] = "password_needs_digit"
	}
}
