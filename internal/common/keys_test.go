package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestKey(t *testing.T) {
	key := DigestKey("idem", "abc")
	require.Equal(t, "idem:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", key)
	require.NotEqual(t, key, DigestKey("idem", "ABC"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.4:5123"
	require.Equal(t, "198.51.100.4", ClientIP(req))

	req.RemoteAddr = "[::ffff:192.0.2.1]:80"
	require.Equal(t, "192.0.2.1", ClientIP(req))

	req.RemoteAddr = "203.0.113.9"
	require.Equal(t, "203.0.113.9", ClientIP(req))

	require.Empty(t, ClientIP(nil))
}
