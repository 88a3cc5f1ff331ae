// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

// entryValidate checks Entry field caps. Initialized in init() with the
// nonblank rule.
var entryValidate *validator.Validate

//nolint:gochecknoinits // the validator must exist before any request is served
func init() {
	entryValidate = validator.New(validator.WithRequiredStructEnabled())

	_ = entryValidate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	entryValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")

		return name
	})
}

// Entry is one term together with its category, the shape used by the
// single-entry form, CSV rows and flattened listings.
type Entry struct {
	Category    string `json:"category"    validate:"nonblank,max=20"`
	Name        string `json:"name"        validate:"nonblank,max=50"`
	Translation string `json:"translation" validate:"nonblank,max=100"`
	Note        string `json:"note"        validate:"max=200"`
}

// Trimmed returns e with surrounding whitespace removed from every field.
func (e Entry) Trimmed() Entry {
	return Entry{
		Category:    strings.TrimSpace(e.Category),
		Name:        strings.TrimSpace(e.Name),
		Translation: strings.TrimSpace(e.Translation),
		Note:        strings.TrimSpace(e.Note),
	}
}

// Term returns the glossary term part of e.
func (e Entry) Term() glossary.Term {
	return glossary.Term{Name: e.Name, Translation: e.Translation, Note: e.Note}
}

// Validate checks the length caps (in characters) and that category, name
// and translation are not blank. Failures are reported as a *ValidationError.
func (e Entry) Validate() error {
	err := entryValidate.Struct(e)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Fields: map[string][]string{}}

	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = append(verr.Fields[fe.Field()], describe(fe))
	}

	return verr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "nonblank":
		return "must not be empty"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag()
	}
}

// ValidationError lists the problems per field.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, strings.Join(e.Fields[k], ", ")))
	}

	return "invalid entry: " + strings.Join(parts, "; ")
}

// editTerm carries the caps that apply to a term inside an editor session,
// where blank names and translations are allowed.
type editTerm struct {
	Name        string `json:"name"        validate:"max=50"`
	Translation string `json:"translation" validate:"max=100"`
	Note        string `json:"note"        validate:"max=200"`
}

// ValidateEdit checks the length caps of every category key and term in
// edit. Failures are keyed as "<category>" or "<category>[i].<field>".
func ValidateEdit(edit Edit) error {
	verr := &ValidationError{Fields: map[string][]string{}}

	for _, c := range edit.Categories {
		if err := entryValidate.Var(c.Key, "max=20"); err != nil {
			verr.Fields[c.Key] = append(verr.Fields[c.Key], "category must be at most 20 characters")
		}

		for i, t := range c.Terms {
			err := entryValidate.Struct(editTerm(t))

			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				continue
			}

			for _, fe := range fieldErrs {
				key := fmt.Sprintf("%s[%d].%s", c.Key, i, fe.Field())
				verr.Fields[key] = append(verr.Fields[key], describe(fe))
			}
		}
	}

	if len(verr.Fields) == 0 {
		return nil
	}

	return verr
}
