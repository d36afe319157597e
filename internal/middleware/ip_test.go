package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		trusted bool
		want    string
	}{
		{name: "socket address", remote: "192.168.0.1:999", want: "192.168.0.1"},
		{name: "socket address with padding", remote: "   192.168.0.1     :   999   ", want: "192.168.0.1"},
		{name: "socket address without port", remote: "203.0.113.9", want: "203.0.113.9"},
		{name: "ipv6 socket address", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "unparseable socket address", remote: "mistake", want: ""},
		{name: "out of range socket address", remote: "500.500.600.500", want: ""},
		{
			name:    "cloudflare header",
			remote:  "192.168.0.1:999",
			headers: map[string]string{"CF-Connecting-IP": "20.55.20.55"},
			trusted: true,
			want:    "20.55.20.55",
		},
		{
			name:    "cloudflare header wins over forwarded-for",
			remote:  "192.168.0.1:999",
			headers: map[string]string{"CF-Connecting-IP": "  20.55.20.55 ", "X-Forwarded-For": "1.2.3.4, 5.6.7.8"},
			trusted: true,
			want:    "20.55.20.55",
		},
		{
			name:    "first forwarded-for entry",
			remote:  "192.168.0.1:999",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4     ,    5.6.7.8  "},
			trusted: true,
			want:    "1.2.3.4",
		},
		{
			name:    "malformed header falls through",
			remote:  "192.168.0.1:999",
			headers: map[string]string{"CF-Connecting-IP": "mistake", "X-Real-IP": "8.8.4.4"},
			trusted: true,
			want:    "8.8.4.4",
		},
		{
			name:    "private address in header is ignored",
			remote:  "192.168.0.1:999",
			headers: map[string]string{"CF-Connecting-IP": "10.0.0.55", "X-Forwarded-For": "127.0.0.1"},
			trusted: true,
			want:    "192.168.0.1",
		},
		{
			name:    "headers ignored without a trusted proxy",
			remote:  "203.0.113.7:4711",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:    "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := ClientIP(req, tt.trusted); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
