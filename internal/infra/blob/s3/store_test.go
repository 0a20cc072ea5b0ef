package s3

import (
	"bytes"
	"testing"
)

func TestDecodeChunked(t *testing.T) {
	body, ok := decodeChunked([]byte("5;chunk-signature=abc\r\nhello\r\n0;chunk-signature=def\r\n\r\n"))
	if !ok || !bytes.Equal(body, []byte("hello")) {
		t.Fatalf("decode = %q %v", body, ok)
	}
	if _, ok := decodeChunked([]byte("plain body")); ok {
		t.Fatalf("plain body decoded as chunked")
	}
	if _, ok := decodeChunked([]byte("zz\r\nhello\r\n0\r\n")); ok {
		t.Fatalf("bad size decoded")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(t.Context(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}
