package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Meta    map[string]string `json:"metadata,omitempty"`
	Omitted string            `json:"omitted,omitempty"`
}

func TestMarshalKeepsFieldOrderAndOmitempty(t *testing.T) {
	data, err := Marshal(payload{ID: "camaral-0", Vector: []float32{0.5, 1}})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"camaral-0","vector":[0.5,1]}`, string(data))
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	in := payload{ID: "x", Meta: map[string]string{"section": "Precios"}}
	require.NoError(t, NewEncoder(&buf).Encode(in))

	var out payload
	require.NoError(t, NewDecoder(&buf).Decode(&out))
	assert.Equal(t, "Precios", out.Meta["section"])
}

func TestUnmarshalRawMessage(t *testing.T) {
	var out struct {
		Result RawMessage `json:"result"`
	}
	require.NoError(t, Unmarshal([]byte(`{"result":{"ok":true}}`), &out))
	assert.JSONEq(t, `{"ok":true}`, string(out.Result))
}
