package typeck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackModeText(t *testing.T) {
	tests := []struct {
		text    string
		want    FallbackMode
		wantErr string
	}{
		{"all", FallbackModeAll, ""},
		{"no-opaque", FallbackModeNoOpaque, ""},
		{"sometimes", FallbackModeNoOpaque, `unknown fallback mode "sometimes"`},
		{"", FallbackModeNoOpaque, `unknown fallback mode ""`},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var m FallbackMode
			err := m.UnmarshalText([]byte(tt.text))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)

			text, err := m.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tt.text, string(text))
		})
	}
}
