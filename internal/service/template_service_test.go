package service

import (
	"reflect"
	"testing"
	"time"
)

// fixedClock returns a deterministic clock for date-variable tests
func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	}
}

// TestTemplateRender_Basic tests placeholder substitution with caller variables
func TestTemplateRender_Basic(t *testing.T) {
	// Setup
	templateSvc := NewTemplateService("02-1234-5678")

	template := "Hello {studentName}, your {className} class starts at {startTime}."
	variables := map[string]interface{}{
		"studentName": "Kim",
		"className":   "Math",
		"startTime":   "18:00",
	}

	// Execute
	rendered, unresolved := templateSvc.Render(template, variables)

	// Verify
	expected := "Hello Kim, your Math class starts at 18:00."
	if rendered != expected {
		t.Errorf("Expected %q but got %q", expected, rendered)
	}
	if len(unresolved) != 0 {
		t.Errorf("Expected no unresolved placeholders, got %v", unresolved)
	}
}

// TestTemplateRender_DefaultVariables tests that contactNumber, currentDate
// and currentDateTime are injected without caller input
func TestTemplateRender_DefaultVariables(t *testing.T) {
	// Setup - fixed clock so date variables are deterministic
	templateSvc := NewTemplateServiceWithClock("02-1234-5678", fixedClock())

	template := "Call {contactNumber}. Today is {currentDate}, now {currentDateTime}."

	// Execute
	rendered, unresolved := templateSvc.Render(template, nil)

	// Verify
	expected := "Call 02-1234-5678. Today is 2025-03-14, now 2025-03-14 09:30."
	if rendered != expected {
		t.Errorf("Expected %q but got %q", expected, rendered)
	}
	if len(unresolved) != 0 {
		t.Errorf("Expected no unresolved placeholders, got %v", unresolved)
	}
}

// TestTemplateRender_CallerOverridesDefaults tests that caller-supplied
// values win over the injected defaults
func TestTemplateRender_CallerOverridesDefaults(t *testing.T) {
	templateSvc := NewTemplateServiceWithClock("02-1234-5678", fixedClock())

	rendered, unresolved := templateSvc.Render("Call {contactNumber}", map[string]interface{}{
		"contactNumber": "010-9999-0000",
	})

	if rendered != "Call 010-9999-0000" {
		t.Errorf("Expected caller value to win, got %q", rendered)
	}
	if len(unresolved) != 0 {
		t.Errorf("Expected no unresolved placeholders, got %v", unresolved)
	}
}

// TestTemplateRender_UnresolvedPlaceholders tests that unknown placeholders
// are left intact and reported
func TestTemplateRender_UnresolvedPlaceholders(t *testing.T) {
	templateSvc := NewTemplateService("02-1234-5678")

	rendered, unresolved := templateSvc.Render("Hello {studentName}, see {unknown}", map[string]interface{}{
		"studentName": "Lee",
	})

	if rendered != "Hello Lee, see {unknown}" {
		t.Errorf("Expected unknown placeholder left intact, got %q", rendered)
	}
	if !reflect.DeepEqual(unresolved, []string{"unknown"}) {
		t.Errorf("Expected unresolved [unknown], got %v", unresolved)
	}
}

// TestTemplateRender_ValueFormatting tests type-specific value rendering
func TestTemplateRender_ValueFormatting(t *testing.T) {
	templateSvc := NewTemplateService("02-1234-5678")
	name := "Park"
	dueDate := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	classTime := time.Date(2025, 4, 1, 18, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		template string
		vars     map[string]interface{}
		expected string
	}{
		{
			name:     "integer value",
			template: "Tuition: {amount} KRW",
			vars:     map[string]interface{}{"amount": 350000},
			expected: "Tuition: 350000 KRW",
		},
		{
			name:     "midnight time renders as date",
			template: "Due: {dueDate}",
			vars:     map[string]interface{}{"dueDate": dueDate},
			expected: "Due: 2025-04-01",
		},
		{
			name:     "time with clock renders as date-time",
			template: "Starts: {classTime}",
			vars:     map[string]interface{}{"classTime": classTime},
			expected: "Starts: 2025-04-01 18:30",
		},
		{
			name:     "nil renders empty",
			template: "Note: {teacherNote}.",
			vars:     map[string]interface{}{"teacherNote": nil},
			expected: "Note: .",
		},
		{
			name:     "string pointer",
			template: "Dear {guardianName}",
			vars:     map[string]interface{}{"guardianName": &name},
			expected: "Dear Park",
		},
		{
			name:     "nil string pointer renders empty",
			template: "Dear {guardianName}",
			vars:     map[string]interface{}{"guardianName": (*string)(nil)},
			expected: "Dear ",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rendered, unresolved := templateSvc.Render(tc.template, tc.vars)
			if rendered != tc.expected {
				t.Errorf("Expected %q but got %q", tc.expected, rendered)
			}
			if len(unresolved) != 0 {
				t.Errorf("Expected no unresolved placeholders, got %v", unresolved)
			}
		})
	}
}

// TestValidateTemplate tests well-formedness checking of template bodies
func TestValidateTemplate(t *testing.T) {
	templateSvc := NewTemplateService("02-1234-5678")

	testCases := []struct {
		name     string
		template string
		wantErr  bool
	}{
		{name: "valid placeholders", template: "Hi {name}, due {dueDate}", wantErr: false},
		{name: "no placeholders", template: "Plain notice", wantErr: false},
		{name: "empty template", template: "", wantErr: true},
		{name: "unclosed brace", template: "Hi {name", wantErr: true},
		{name: "stray closing brace", template: "Hi name}", wantErr: true},
		{name: "placeholder starting with digit", template: "Hi {1name}", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := templateSvc.ValidateTemplate(tc.template)
			if tc.wantErr && err == nil {
				t.Errorf("Expected error for template %q but got nil", tc.template)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error for template %q but got: %v", tc.template, err)
			}
		})
	}
}
