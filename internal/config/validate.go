package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Severity grades an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one configuration finding. Path uses koanf keys, e.g.
// "datasets[1].path".
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePipeline checks field shapes with struct tags and then the
// cross-field rules. It never fails; problems come back as issues.
func ValidatePipeline(c Config) []Issue {
	var issues []Issue

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fieldPath(fe.Namespace()),
					Message:  fieldMessage(fe),
				})
			}
		} else {
			issues = append(issues, Issue{SeverityError, "", err.Error()})
		}
	}

	if len(c.Datasets) == 0 {
		issues = append(issues, Issue{SeverityWarning, "datasets", "no datasets configured; files must be given on the command line"})
	}
	seen := map[string]int{}
	for i, d := range c.Datasets {
		if j, dup := seen[d.Name]; dup && d.Name != "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("datasets[%d].name", i),
				fmt.Sprintf("duplicate dataset name %q (also datasets[%d])", d.Name, j)})
			continue
		}
		seen[d.Name] = i
	}

	for raw, mapped := range c.Parser.HeaderMap {
		if strings.TrimSpace(mapped) == "" {
			issues = append(issues, Issue{SeverityError, "parser.header_map." + raw, "maps to an empty column name"})
		}
	}

	switch {
	case c.Storage.Kind != "" && strings.TrimSpace(c.Storage.DSN) == "":
		issues = append(issues, Issue{SeverityError, "storage.dsn", "required when storage.kind is set"})
	case c.Storage.Kind == "" && c.Storage.DSN != "":
		issues = append(issues, Issue{SeverityWarning, "storage.dsn", "ignored because storage.kind is empty"})
	}

	if c.Metrics.Backend == "pushgateway" && c.Metrics.PushgatewayURL == "" {
		issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "required for the pushgateway backend"})
	}

	if c.Output.Format == "none" && c.Storage.Kind == "" {
		issues = append(issues, Issue{SeverityWarning, "output.format", "no files and no storage: results are only reported"})
	}

	return issues
}

// fieldPath drops the root struct name: "Config.storage.kind" -> "storage.kind".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fmt.Sprint(fe.Value()))
	case "gte", "lte":
		return fmt.Sprintf("must be %s %s, got %v", fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
