package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// placeholderPattern matches {variableName} placeholders
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_]*)\}`)

// TemplateService renders message templates.
// Placeholders are written {name}; unknown placeholders are left intact
// and reported so operators can detect malformed templates instead of
// silently losing content.
type TemplateService struct {
	defaultContact string
	now            func() time.Time
}

// NewTemplateService creates a new template service.
// defaultContact is the system default sender/contact number injected
// as the {contactNumber} variable.
func NewTemplateService(defaultContact string) *TemplateService {
	return &TemplateService{
		defaultContact: defaultContact,
		now:            time.Now,
	}
}

// NewTemplateServiceWithClock creates a template service with an injected
// clock, making the current-date variables deterministic in tests
func NewTemplateServiceWithClock(defaultContact string, now func() time.Time) *TemplateService {
	return &TemplateService{
		defaultContact: defaultContact,
		now:            now,
	}
}

// Render substitutes {name} placeholders with variable values and returns
// the rendered text plus the names of any unresolved placeholders.
// Caller-supplied values take precedence over the injected defaults.
func (s *TemplateService) Render(template string, variables map[string]interface{}) (string, []string) {
	merged := s.withDefaultVariables(variables)

	rendered := template
	for name, value := range merged {
		placeholder := "{" + name + "}"
		rendered = strings.ReplaceAll(rendered, placeholder, formatValue(value))
	}

	// Collect placeholders that survived substitution
	var unresolved []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(rendered, -1) {
		unresolved = append(unresolved, match[1])
	}

	return rendered, unresolved
}

// ValidateTemplate checks that a template body only contains well-formed
// placeholders (an opening brace must be part of a {name} placeholder)
func (s *TemplateService) ValidateTemplate(template string) error {
	if template == "" {
		return fmt.Errorf("template cannot be empty")
	}

	stripped := placeholderPattern.ReplaceAllString(template, "")
	if idx := strings.IndexAny(stripped, "{}"); idx != -1 {
		return fmt.Errorf("malformed placeholder near position %d", idx)
	}

	return nil
}

// withDefaultVariables injects contactNumber, currentDate and
// currentDateTime unless the caller already supplied them
func (s *TemplateService) withDefaultVariables(variables map[string]interface{}) map[string]interface{} {
	now := s.now()

	merged := make(map[string]interface{}, len(variables)+3)
	for name, value := range variables {
		merged[name] = value
	}

	if _, ok := merged["contactNumber"]; !ok {
		merged["contactNumber"] = s.defaultContact
	}
	if _, ok := merged["currentDate"]; !ok {
		merged["currentDate"] = now.Format(dateLayout)
	}
	if _, ok := merged["currentDateTime"]; !ok {
		merged["currentDateTime"] = now.Format(dateTimeLayout)
	}

	return merged
}

// formatValue converts a variable value to its message representation.
// Dates render as yyyy-MM-dd, date-times as yyyy-MM-dd HH:mm, nil as
// empty string, everything else via its natural string form.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 {
			return v.Format(dateLayout)
		}
		return v.Format(dateTimeLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return formatValue(*v)
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	default:
		return fmt.Sprintf("%v", v)
	}
}
