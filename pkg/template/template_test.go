package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/template"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		data     any
		expected string
		wantErr  bool
	}{
		{
			name:     "plain text passes through",
			input:    "Hello there",
			data:     nil,
			expected: "Hello there",
		},
		{
			name:     "simple substitution",
			input:    "Hi {{.name}}!",
			data:     map[string]any{"name": "Dana"},
			expected: "Hi Dana!",
		},
		{
			name:     "nested data",
			input:    "Service: {{.appointment.service}}",
			data:     map[string]any{"appointment": map[string]any{"service": "facial"}},
			expected: "Service: facial",
		},
		{
			name:    "unclosed action fails",
			input:   "Hi {{.name",
			data:    map[string]any{"name": "Dana"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := template.Render(tt.input, tt.data)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRenderWithContext(t *testing.T) {
	t.Parallel()

	executionCtx := &models.ExecutionContext{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		Client: &models.Client{
			ID:       "client-1",
			FullName: "Dana Reyes",
			Email:    "dana@example.com",
			Tags:     []string{"vip"},
		},
		TriggerData: map[string]any{"service": "facial"},
		StepResults: map[string]any{
			"b1": map[string]any{"to": "dana@example.com"},
		},
	}

	result, err := template.RenderWithContext(
		"Hi {{.client.full_name}}, thanks for your {{.trigger_data.service}} (ref {{.execution.id}})",
		executionCtx,
	)
	require.NoError(t, err)
	assert.Equal(t, "Hi Dana Reyes, thanks for your facial (ref exec-1)", result)
}

func TestRenderWithContext_NoClient(t *testing.T) {
	t.Parallel()

	executionCtx := &models.ExecutionContext{
		ID:          "exec-1",
		WorkflowID:  "wf-1",
		TriggerData: map[string]any{},
	}

	result, err := template.RenderWithContext("Workflow {{.execution.workflow_id}}", executionCtx)
	require.NoError(t, err)
	assert.Equal(t, "Workflow wf-1", result)
}

func TestNeedsTemplating(t *testing.T) {
	t.Parallel()

	assert.True(t, template.NeedsTemplating("Hi {{.name}}"))
	assert.False(t, template.NeedsTemplating("Hi Dana"))
}
