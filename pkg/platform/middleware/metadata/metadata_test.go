package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confsite/pkg/requestcontext"
)

func TestMiddlewareHandler(t *testing.T) {
	proxies, err := ParseTrustedProxies("10.0.0.0/8, ")
	require.NoError(t, err)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expectedIP string
	}{
		{"ignores XFF from untrusted peer", "192.168.1.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.1"}, "192.168.1.1"},
		{"trusts XFF from proxy", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"}, "203.0.113.1"},
		{"rejects malformed XFF", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "garbage"}, "10.0.0.1"},
		{"uses X-Real-IP from proxy", "10.0.0.1:1234", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"ipv6 peer", "[2001:db8::1]:443", nil, "2001:db8::1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ip, ua string
			handler := NewMiddleware(proxies).Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				ip = requestcontext.ClientIP(r.Context())
				ua = requestcontext.UserAgent(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			req.Header.Set("User-Agent", "test-agent")
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tc.expectedIP, ip)
			assert.Equal(t, "test-agent", ua)
		})
	}
}

func TestParseTrustedProxiesRejectsBadCIDR(t *testing.T) {
	_, err := ParseTrustedProxies("10.0.0.0/8,not-a-cidr")
	assert.Error(t, err)
}
