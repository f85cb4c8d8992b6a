package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ValidationError lists the invalid input fields and their messages.
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := lo.Keys(e.Fields)
	slices.Sort(keys)
	parts := lo.Map(keys, func(k string, _ int) string {
		return k + ": " + strings.Join(e.Fields[k], ", ")
	})
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validator collects field errors.
type Validator struct {
	fields map[string][]string
}

// Check records msg for field when ok is false.
func (v *Validator) Check(ok bool, field, msg string) {
	if ok {
		return
	}
	if v.fields == nil {
		v.fields = make(map[string][]string)
	}
	v.fields[field] = append(v.fields[field], msg)
}

// Length checks that s has between min and max runes.
func (v *Validator) Length(s string, min, max int, field string) {
	n := utf8.RuneCountInString(s)
	if min > 0 && n < min {
		v.Check(false, field, fmt.Sprintf("must be at least %d characters", min))
		return
	}
	v.Check(n <= max, field, fmt.Sprintf("must be at most %d characters", max))
}

// OptionalLength checks s when it is set.
func (v *Validator) OptionalLength(s *string, max int, field string) {
	if s == nil {
		return
	}
	v.Length(*s, 0, max, field)
}

// Range checks that d is within [min, max].
func (v *Validator) Range(d, min, max decimal.Decimal, field string) {
	v.Check(d.GreaterThanOrEqual(min) && d.LessThanOrEqual(max), field,
		fmt.Sprintf("must be between %s and %s", min, max))
}

// NonNegative checks that d is zero or more.
func (v *Validator) NonNegative(d decimal.Decimal, field string) {
	v.Check(!d.IsNegative(), field, "must be zero or more")
}

// Err returns a *ValidationError, or nil when every check passed.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
