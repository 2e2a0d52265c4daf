package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken_Freshness(t *testing.T) {
	seen := make(map[Token]bool, 1000)
	for i := 0; i < 1000; i++ {
		tok := NewToken()
		require.True(t, tok.Valid())
		require.False(t, seen[tok], "token collision: %s", tok)
		seen[tok] = true
	}
}

func TestToken_Valid(t *testing.T) {
	assert.False(t, NoToken.Valid())
	assert.False(t, Token("").Valid())
	assert.True(t, Token("anything").Valid())
}

func TestKind_Valid(t *testing.T) {
	assert.True(t, KindResult.Valid())
	assert.True(t, KindLog.Valid())
	assert.True(t, KindEOI.Valid())
	assert.False(t, Kind("").Valid())
	assert.False(t, Kind("ack").Valid())
}

func TestEnvelope_Constructors(t *testing.T) {
	tok := NewToken()

	res := NewResult(tok, "counter", 42)
	assert.Equal(t, KindResult, res.Kind)
	assert.Equal(t, tok, res.Token)
	assert.Equal(t, "counter", res.From)
	assert.Equal(t, 42, res.Value)
	assert.False(t, res.At.IsZero())
	assert.NoError(t, res.Validate())

	log := NewLog(tok, "counter", "started")
	assert.Equal(t, KindLog, log.Kind)
	assert.Equal(t, "started", log.Text)
	assert.NoError(t, log.Validate())

	eoi := NewEOI(tok)
	assert.Equal(t, KindEOI, eoi.Kind)
	assert.Empty(t, eoi.From)
	assert.NoError(t, eoi.Validate())
}

func TestEnvelope_Validate(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
	}{
		{"missing token", Envelope{Kind: KindResult}},
		{"unknown kind", Envelope{Kind: "ack", Token: NewToken()}},
		{"zero value", Envelope{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.env.Validate())
		})
	}
}

func TestEnvelope_WireRoundTrip(t *testing.T) {
	tok := NewToken()
	env := NewResult(tok, "mapper", map[string]any{"word": "fox", "count": 3})

	data, err := env.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, env.Kind, decoded.Kind)
	assert.Equal(t, env.Token, decoded.Token)
	assert.Equal(t, env.From, decoded.From)

	// JSON flattens typed values to generic shapes
	value, ok := decoded.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fox", value["word"])
	assert.Equal(t, float64(3), value["count"])
}

func TestUnmarshal_Rejections(t *testing.T) {
	_, err := Unmarshal([]byte("not json"))
	assert.Error(t, err)

	// Well-formed JSON that fails envelope validation
	_, err = Unmarshal([]byte(`{"kind":"result"}`))
	assert.Error(t, err)
}
