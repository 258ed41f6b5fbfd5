package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncementButtonsScan(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected AnnouncementButtons
	}{
		{
			name:     "valid payload",
			value:    []byte(`[{"text":"Open","url":"https://example.com"}]`),
			expected: AnnouncementButtons{{Text: "Open", URL: "https://example.com"}},
		},
		{
			name:     "string payload",
			value:    `[{"text":"Open","url":"https://example.com"}]`,
			expected: AnnouncementButtons{{Text: "Open", URL: "https://example.com"}},
		},
		{
			name:     "nil value",
			value:    nil,
			expected: AnnouncementButtons{},
		},
		{
			name:     "empty list",
			value:    []byte(`[]`),
			expected: AnnouncementButtons{},
		},
		{
			name:     "malformed payload loads without buttons",
			value:    []byte(`{"not":"a list"`),
			expected: AnnouncementButtons{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buttons AnnouncementButtons
			require.NoError(t, buttons.Scan(tt.value))
			assert.Equal(t, tt.expected, buttons)
		})
	}

	t.Run("unsupported type", func(t *testing.T) {
		var buttons AnnouncementButtons
		assert.Error(t, buttons.Scan(42))
	})
}
