package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type format string

const (
	formatText format = "text"
	formatJSON format = "json"
)

func newFormatNormalizer() *Normalizer[format] {
	return NewNormalizer(map[string]format{
		"text": formatText,
		"JSON": formatJSON,
	}, formatText)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newFormatNormalizer()

	require.Equal(t, formatJSON, n.Normalize("json"))
	require.Equal(t, formatJSON, n.Normalize("  JSON "))
	require.Equal(t, formatText, n.Normalize("yaml"))
	require.Equal(t, []string{"json", "text"}, n.ValidKeys())
}

func TestNormalizer_NormalizeWithError(t *testing.T) {
	n := newFormatNormalizer()

	_, err := n.NormalizeWithError("yaml")
	require.ErrorContains(t, err, `invalid value "yaml"`)

	v, err := n.NormalizeWithError("Text")
	require.NoError(t, err)
	require.Equal(t, formatText, v)
}

func TestNormalizer_NormalizeField(t *testing.T) {
	n := newFormatNormalizer()

	v, warn := n.NormalizeField("logging.format", "JSON")
	require.Equal(t, formatJSON, v)
	require.Contains(t, warn, "normalized logging.format")

	v, warn = n.NormalizeField("logging.format", "json")
	require.Equal(t, formatJSON, v)
	require.Empty(t, warn)

	v, warn = n.NormalizeField("logging.format", "xml")
	require.Equal(t, formatText, v)
	require.Contains(t, warn, "using default")

	v, warn = n.NormalizeField("logging.format", "")
	require.Equal(t, formatText, v)
	require.Empty(t, warn)
}
