package wait

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/protocol"
)

func TestFactory_Create(t *testing.T) {
	factory := NewFactory()
	assert.Equal(t, "wait", factory.ID())

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{name: "valid", config: map[string]any{"duration": "24h"}, wantErr: false},
		{name: "missing", config: map[string]any{}, wantErr: true},
		{name: "unparseable", config: map[string]any{"duration": "tomorrow"}, wantErr: true},
		{name: "negative", config: map[string]any{"duration": "-1h"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.Create(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAction_Execute_ReturnsWaitSignal(t *testing.T) {
	action, err := NewFactory().Create(map[string]any{"duration": "30m"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	before := time.Now().UTC()

	_, err = action.Execute(context.Background(), models.ExecutionContext{}, logger)
	require.Error(t, err)

	var signal *protocol.WaitSignal

	require.True(t, errors.As(err, &signal))
	assert.WithinDuration(t, before.Add(30*time.Minute), signal.ResumeAt, 5*time.Second)
}
