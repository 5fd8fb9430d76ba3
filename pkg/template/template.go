// Package template provides templating for dynamic node configuration and
// campaign message personalization.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/conduitcrm/conduit/pkg/models"
)

// RenderWithContext renders a template string against the run's execution
// context. Variables and trigger data are exposed under .variables and
// .trigger_data.
func RenderWithContext(input string, ec *models.ExecutionContext) (string, error) {
	data := map[string]any{
		"variables":    ec.Variables,
		"vars":         ec.Variables,
		"trigger_data": ec.TriggerData,
		"run": map[string]any{
			"id":          ec.RunID,
			"workflow_id": ec.WorkflowID,
			"tenant_id":   ec.TenantID,
		},
	}

	return Render(input, data)
}

// RenderRecipient renders a campaign message against one recipient, exposing
// the recipient's merge data at the top level plus .contact metadata.
func RenderRecipient(input string, recipient models.Recipient) (string, error) {
	data := map[string]any{
		"contact": map[string]any{
			"id":    recipient.ContactID,
			"phone": recipient.Phone,
		},
	}

	for k, v := range recipient.Data {
		data[k] = v
	}

	return Render(input, data)
}

// Render renders a template string against arbitrary data.
func Render(templateStr string, data any) (string, error) {
	if !strings.Contains(templateStr, "{{") {
		return templateStr, nil
	}

	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		}).
		Option("missingkey=zero").
		Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to render template '%s': %w", templateStr, err)
	}

	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}
