package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKey(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		want   string
	}{
		{"plain path", "GET", "/api/items", "GET:api/items"},
		{"trailing slash trimmed", "GET", "/api/items/", "GET:api/items"},
		{"root path", "GET", "/", "GET"},
		{"single param", "GET", "/api/items?page=2", "GET:api/items:page=2"},
		{"params sorted by name", "GET", "/api/items?sort=name&page=2", "GET:api/items:page=2:sort=name"},
		{"repeated param values sorted", "GET", "/api/items?tag=b&tag=a", "GET:api/items:tag=a:tag=b"},
		{"method distinguishes", "HEAD", "/api/items", "HEAD:api/items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			assert.Equal(t, tt.want, DefaultKey(r))
		})
	}
}

func TestDefaultKeyQueryOrderIndependent(t *testing.T) {
	a := httptest.NewRequest("GET", "/api/items?a=1&b=2&c=3", nil)
	b := httptest.NewRequest("GET", "/api/items?c=3&a=1&b=2", nil)
	assert.Equal(t, DefaultKey(a), DefaultKey(b))
}
