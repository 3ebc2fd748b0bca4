package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", in: "Sure! {\"a\":{\"b\":2}} hope that helps", want: `{"a":{"b":2}}`},
		{name: "no object", in: "nothing here", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Skip bool `json:"skip"`
	}
	require.NoError(t, DecodeJSON("```json\n{\"skip\": true}\n```", &out))
	assert.True(t, out.Skip)
	assert.Error(t, DecodeJSON("{not json}", &out))
}

func TestNewOptions(t *testing.T) {
	o := NewOptions(0.7, WithTemperature(0.1), WithJSONResponse(), WithMaxTokens(50), WithModel("m"))
	assert.Equal(t, 0.1, o.Temperature)
	assert.True(t, o.JSON)
	assert.Equal(t, 50, o.MaxTokens)
	assert.Equal(t, "m", o.Model)
}
