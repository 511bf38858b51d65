package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_RemoteAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.7:51000"

	assert.Equal(t, "203.0.113.7", ExtractClientIP(req, nil))
	assert.Equal(t, "203.0.113.7", ExtractClientIP(req, &IPConfig{}))
}

func TestExtractClientIP_IgnoresHeadersFromUntrustedSource(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.7:51000"
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	req.Header.Set("X-Real-IP", "198.51.100.10")

	config := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	assert.Equal(t, "203.0.113.7", ExtractClientIP(req, config))
}

func TestExtractClientIP_HonorsXFFFromTrustedProxy(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.1.2.3:51000"
	req.Header.Set("X-Forwarded-For", "198.51.100.9, 10.1.2.3")

	config := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	assert.Equal(t, "198.51.100.9", ExtractClientIP(req, config))
}

func TestExtractClientIP_SkipsInvalidXFFEntries(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.1.2.3:51000"
	req.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.9")

	config := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	assert.Equal(t, "198.51.100.9", ExtractClientIP(req, config))
}

func TestExtractClientIP_FallsBackToXRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.1.2.3:51000"
	req.Header.Set("X-Real-IP", "198.51.100.9")

	config := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	assert.Equal(t, "198.51.100.9", ExtractClientIP(req, config))
}

func TestExtractClientIP_IPv6(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[2001:db8::1]:51000"

	assert.Equal(t, "2001:db8::1", ExtractClientIP(req, nil))
}
