package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// CompressionMarker prefixes compressed payloads. Its presence is the sole
// signal that a payload must be decompressed on read; readers never infer
// compression state from configuration, since compression is decided
// per-write against a size threshold.
const CompressionMarker = "gz:"

// Serialize encodes a value as a JSON string suitable for storage.
func Serialize(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize value: %w", err)
	}
	return string(data), nil
}

// Deserialize decodes a JSON payload into v.
func Deserialize(payload string, v any) error {
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("deserialize value: %w", err)
	}
	return nil
}

// Compress gzips the payload, base64-encodes the binary result so it remains
// a safe string for the store, and prepends the compression marker.
func Compress(payload string) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(payload)); err != nil {
		return "", fmt.Errorf("compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress payload: %w", err)
	}
	return CompressionMarker + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress reverses Compress. Payloads without the marker are returned
// unchanged, so callers can always route reads through Decompress.
func Decompress(payload string) (string, error) {
	if !IsCompressed(payload) {
		return payload, nil
	}
	raw, err := base64.StdEncoding.DecodeString(payload[len(CompressionMarker):])
	if err != nil {
		return "", fmt.Errorf("decode compressed payload: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decompress payload: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("decompress payload: %w", err)
	}
	return string(data), nil
}

// IsCompressed reports whether the payload carries the compression marker.
func IsCompressed(payload string) bool {
	return strings.HasPrefix(payload, CompressionMarker)
}
