package story

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"storycodex/internal/services"
)

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of doc and reports every failure in one
// SchemaError for kind.
func validateStruct(kind string, doc any) error {
	err := structValidator.Struct(doc)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &services.SchemaError{Kind: kind, Detail: err.Error()}
	}
	schemaErr := &services.SchemaError{Kind: kind}
	var problems []string
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		if fe.Tag() == "required" {
			schemaErr.Missing = append(schemaErr.Missing, field)
			continue
		}
		problems = append(problems, describeFieldError(field, fe))
	}
	schemaErr.Detail = strings.Join(problems, "; ")
	return schemaErr
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(namespace string) string {
	if idx := strings.IndexByte(namespace, '.'); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func describeFieldError(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "eq":
		return fmt.Sprintf("%s must equal %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// schemaProblems collects cross-field problems into a SchemaError.
type schemaProblems struct {
	kind     string
	problems []string
}

func (p *schemaProblems) addf(format string, args ...any) {
	p.problems = append(p.problems, fmt.Sprintf(format, args...))
}

func (p *schemaProblems) err() error {
	if len(p.problems) == 0 {
		return nil
	}
	return &services.SchemaError{Kind: p.kind, Detail: strings.Join(p.problems, "; ")}
}

// Problems flattens a SchemaError into individual messages for repair prompts.
func Problems(err error) []string {
	var schemaErr *services.SchemaError
	if !errors.As(err, &schemaErr) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	var out []string
	for _, field := range schemaErr.Missing {
		out = append(out, field+" is required")
	}
	for _, part := range strings.Split(schemaErr.Detail, "; ") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
