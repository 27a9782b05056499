package reportrepo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppetrack/internal/domain/reportgen"
)

func TestEncodePayload_SmallStaysJSON(t *testing.T) {
	r := NewReportRepository()

	payload := &reportgen.ReportPayload{
		Summary: reportgen.Summary{MaterialCount: 3, Narrative: "tudo sob controle"},
	}

	plain, compressed, err := r.encodePayload(payload)
	require.NoError(t, err)
	assert.NotEmpty(t, plain)
	assert.Nil(t, compressed)

	decoded, err := decodePayload(plain, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, decoded.Summary.MaterialCount)
}

func TestEncodePayload_LargeIsCompressed(t *testing.T) {
	r := &ReportRepository{CompressThreshold: 128}

	payload := &reportgen.ReportPayload{
		Summary: reportgen.Summary{Narrative: strings.Repeat("estoque abaixo do minimo ", 100)},
	}

	plain, compressed, err := r.encodePayload(payload)
	require.NoError(t, err)
	assert.Nil(t, plain)
	require.NotEmpty(t, compressed)

	decoded, err := decodePayload(nil, compressed)
	require.NoError(t, err)
	assert.Equal(t, payload.Summary.Narrative, decoded.Summary.Narrative)
}

func TestEncodePayload_Nil(t *testing.T) {
	r := NewReportRepository()

	plain, compressed, err := r.encodePayload(nil)
	require.NoError(t, err)
	assert.Nil(t, plain)
	assert.Nil(t, compressed)

	decoded, err := decodePayload(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
