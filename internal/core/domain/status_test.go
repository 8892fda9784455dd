package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentStatus_Valid(t *testing.T) {
	for _, s := range []DocumentStatus{
		StatusPending, StatusConverted, StatusChunked, StatusEmbedded, StatusFailed,
	} {
		assert.True(t, s.Valid(), "status %q should be valid", s)
	}

	assert.False(t, DocumentStatus("indexed").Valid())
	assert.False(t, DocumentStatus("").Valid())
}

func TestDocumentStatus_Terminal(t *testing.T) {
	assert.True(t, StatusEmbedded.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConverted.Terminal())
	assert.False(t, StatusChunked.Terminal())
}

func TestDocumentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from DocumentStatus
		to   DocumentStatus
		ok   bool
	}{
		{"pending to converted", StatusPending, StatusConverted, true},
		{"converted to chunked", StatusConverted, StatusChunked, true},
		{"chunked to embedded", StatusChunked, StatusEmbedded, true},
		{"pending to failed", StatusPending, StatusFailed, true},
		{"chunked to failed", StatusChunked, StatusFailed, true},
		{"no skipping stages", StatusPending, StatusChunked, false},
		{"no going backwards", StatusChunked, StatusConverted, false},
		{"embedded is terminal", StatusEmbedded, StatusFailed, false},
		{"failed is terminal", StatusFailed, StatusPending, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to))
		})
	}
}
