// Package template renders message bodies and step configuration with data
// from the running enrollment.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/glowdesk/glowdesk/pkg/models"
)

// RenderWithContext renders the input against the enrollment context. Message
// templates can reference the client ({{.client.full_name}}), trigger data,
// prior step results and the execution itself.
func RenderWithContext(input string, executionCtx *models.ExecutionContext) (string, error) {
	data := map[string]any{
		"trigger_data": executionCtx.TriggerData,
		"step_results": executionCtx.StepResults,
		"metadata":     executionCtx.Metadata,
		"execution": map[string]any{
			"id":          executionCtx.ID,
			"workflow_id": executionCtx.WorkflowID,
		},
	}

	if executionCtx.Client != nil {
		data["client"] = map[string]any{
			"id":        executionCtx.Client.ID,
			"full_name": executionCtx.Client.FullName,
			"email":     executionCtx.Client.Email,
			"tags":      executionCtx.Client.Tags,
		}
	}

	return Render(input, data)
}

func Render(templateStr string, data any) (string, error) {
	tmpl, err := template.
		New("message").
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to render template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}

// NeedsTemplating reports whether the input contains template actions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}
