package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{"text/plain"}, New().SupportedMIMETypes())
}

func TestConvert(t *testing.T) {
	c := New()

	text, err := c.Convert(context.Background(), &domain.RawFile{
		Filename: "notes.txt",
		Content:  []byte("line one\r\n\r\nline two  \n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestConvert_EmptyFile(t *testing.T) {
	c := New()

	text, err := c.Convert(context.Background(), &domain.RawFile{Filename: "empty.txt"})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestConvert_Idempotent(t *testing.T) {
	c := New()
	raw := &domain.RawFile{Filename: "notes.txt", Content: []byte("a\n\nb\r\nc")}

	first, err := c.Convert(context.Background(), raw)
	require.NoError(t, err)
	second, err := c.Convert(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConvert_InvalidUTF8(t *testing.T) {
	c := New()

	_, err := c.Convert(context.Background(), &domain.RawFile{
		Filename: "binary.txt",
		Content:  []byte{0xff, 0xfe, 0xfd},
	})
	assert.ErrorIs(t, err, domain.ErrCorruptDocument)
}

func TestConvert_NilFile(t *testing.T) {
	_, err := New().Convert(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
