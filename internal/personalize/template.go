// internal/personalize/template.go
package personalize

import (
	"strings"
)

// RenderTemplate replaces {key} placeholders with the matching values.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

const (
	fallbackSubjectTemplate = "Hi {first_name}!"
	fallbackContentTemplate = "Dear {first_name},\n\n{prompt}\n\nBest regards,\nThe Team"
	fallbackNotes           = "Fallback email due to generation error"
)

// Fallback is the form letter used when generation fails for a contact.
// The prompt goes in last so braces inside it are left as written.
func Fallback(firstName, prompt string) Email {
	names := map[string]string{"first_name": firstName}
	content := RenderTemplate(fallbackContentTemplate, names)
	return Email{
		Subject: RenderTemplate(fallbackSubjectTemplate, names),
		Content: strings.Replace(content, "{prompt}", prompt, 1),
		Notes:   fallbackNotes,
	}
}
