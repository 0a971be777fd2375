package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query string `json:"query" description:"Search query"`
	Topic string `json:"topic,omitempty" enum:"general,news,finance" default:"general"`
	Max   int    `json:"max_results,omitempty" default:"5"`
	Raw   bool   `json:"include_raw_content,omitempty" default:"false"`
}

func TestCreateSchema_EnumAndRequired(t *testing.T) {
	schema := CreateSchema(searchArgs{})

	props := schema["properties"].(map[string]any)
	topic := props["topic"].(map[string]any)

	assert.Equal(t, []string{"general", "news", "finance"}, topic["enum"])
	assert.Equal(t, "general", topic["default"])
	assert.Equal(t, "integer", props["max_results"].(map[string]any)["type"])
	assert.Equal(t, int64(5), props["max_results"].(map[string]any)["default"])
	assert.Equal(t, false, props["include_raw_content"].(map[string]any)["default"])
	assert.Equal(t, []string{"query"}, schema["required"])
}

func TestValidateParameters_StringSliceRequired(t *testing.T) {
	schema := CreateSchema(searchArgs{})

	err := ValidateParameters(map[string]any{"topic": "news"}, schema)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "query", vErr.Field)

	assert.NoError(t, ValidateParameters(map[string]any{"query": "Kyoto", "max_results": float64(5)}, schema))
}

func TestValidateParameters_Enum(t *testing.T) {
	schema := CreateSchema(searchArgs{})

	err := ValidateParameters(map[string]any{"query": "Kyoto", "topic": "sports"}, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of general, news, finance")
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Trip to {{ .city }} on {{ .date }}", map[string]any{"city": "Kyoto", "date": "2026-10-18"})
	require.NoError(t, err)
	assert.Equal(t, "Trip to Kyoto on 2026-10-18", out)

	out, err = RenderTemplate("no markers & <raw>", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers & <raw>", out)

	out, err = RenderTemplate("{{ upper .city }} <b>", map[string]any{"city": "osaka"})
	require.NoError(t, err)
	assert.Equal(t, "OSAKA <b>", out)

	_, err = RenderTemplate("{{ .city", nil)
	assert.Error(t, err)
}
