package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"string", "hello"},
		{"number", 42.5},
		{"bool", true},
		{"null", nil},
		{"object", map[string]any{"id": float64(1), "name": "widget"}},
		{"array", []any{"a", "b", "c"}},
		{"nested", map[string]any{"items": []any{map[string]any{"id": float64(7)}}}},
		{"unicode", "héllo wörld ☃"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Serialize(tt.value)
			require.NoError(t, err)

			var got any
			require.NoError(t, Deserialize(payload, &got))
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestSerializeUnencodable(t *testing.T) {
	_, err := Serialize(make(chan int))
	assert.Error(t, err)
}

func TestDeserializeInvalidPayload(t *testing.T) {
	var v any
	assert.Error(t, Deserialize("{not json", &v))
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	payload := strings.Repeat(`{"id":1,"name":"widget"}`, 100)

	compressed, err := Compress(payload)
	require.NoError(t, err)
	assert.True(t, IsCompressed(compressed))
	assert.Less(t, len(compressed), len(payload), "repetitive payload should shrink")

	plain, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, payload, plain)
}

func TestDecompressPassthrough(t *testing.T) {
	// Payloads without the marker are returned unchanged, regardless of
	// any configuration.
	payload := `{"id":1}`
	plain, err := Decompress(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, plain)
}

func TestDecompressCorruptPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid base64", CompressionMarker + "not-base64!!!"},
		{"valid base64 invalid gzip", CompressionMarker + "aGVsbG8="},
		{"marker only", CompressionMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(tt.payload)
			assert.Error(t, err)
		})
	}
}

func TestIsCompressed(t *testing.T) {
	assert.False(t, IsCompressed(`{"plain":true}`))
	assert.False(t, IsCompressed(""))
	assert.True(t, IsCompressed(CompressionMarker+"abc"))
}
