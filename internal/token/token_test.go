package token

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := NewCodec(key, "https://api.example.com")
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return c
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	urls := []string{
		"http://x/1.png",
		"https://img.example.com/a/b/c.jpg?w=640&h=480",
		"https://例子.com/图片.png",
		"",
	}
	for _, u := range urls {
		tok, err := c.Encode(u)
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", u, err)
		}
		got, err := c.Decode(tok)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)) error: %v", u, err)
		}
		if got != u {
			t.Fatalf("round trip mismatch: got %q, want %q", got, u)
		}
	}
}

func TestEncodeIsNonDeterministic(t *testing.T) {
	c := newTestCodec(t)

	const u = "https://img.example.com/1.png"
	tok1, err := c.Encode(u)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	tok2, err := c.Encode(u)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	// 每次编码都取新 nonce，两个令牌必须不同但都能解回原地址
	if tok1 == tok2 {
		t.Fatalf("two encodings of the same URL produced identical tokens: %q", tok1)
	}
	for _, tok := range []string{tok1, tok2} {
		got, err := c.Decode(tok)
		if err != nil || got != u {
			t.Fatalf("Decode(%q) = %q, %v; want %q", tok, got, err, u)
		}
	}
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	c := newTestCodec(t)

	cases := []string{
		"",
		"no-separator",
		"a:b:c",
		"zzzz:aGVsbG8=",          // 非法 hex
		"00ff:not_base64!!!",     // 非法 base64
		"00ff00ff00ff:aGVsbG8=",  // nonce 长度不对
	}
	for _, tok := range cases {
		if _, err := c.Decode(tok); !errors.Is(err, ErrDecode) {
			t.Fatalf("Decode(%q) error = %v, want ErrDecode", tok, err)
		}
	}
}

func TestDecodeRejectsTamperedCiphertext(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.Encode("https://img.example.com/1.png")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	parts := strings.SplitN(tok, ":", 2)
	raw, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode ciphertext: %v", err)
	}
	raw[0] ^= 0xff
	tampered := parts[0] + ":" + base64.StdEncoding.EncodeToString(raw)

	if _, err := c.Decode(tampered); !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode(tampered) error = %v, want ErrDecode", err)
	}
}

func TestDecodeRejectsWrongKey(t *testing.T) {
	c1 := newTestCodec(t)

	otherKey := make([]byte, KeySize)
	for i := range otherKey {
		otherKey[i] = byte(i + 1)
	}
	c2, err := NewCodec(otherKey, "https://api.example.com")
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}

	tok, err := c1.Encode("https://img.example.com/1.png")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if _, err := c2.Decode(tok); !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode with wrong key error = %v, want ErrDecode", err)
	}
}

func TestWrapURLHidesOrigin(t *testing.T) {
	c := newTestCodec(t)

	const origin = "https://img.example.com/secret/1.png"
	wrapped, err := c.WrapURL(origin)
	if err != nil {
		t.Fatalf("WrapURL error: %v", err)
	}
	if !strings.HasPrefix(wrapped, "https://api.example.com/image-urls?url=") {
		t.Fatalf("wrapped URL should start with the public proxy path: %q", wrapped)
	}
	if strings.Contains(wrapped, "img.example.com") {
		t.Fatalf("wrapped URL leaks the origin host: %q", wrapped)
	}

	// 空地址不生成令牌
	empty, err := c.WrapURL("")
	if err != nil || empty != "" {
		t.Fatalf("WrapURL(\"\") = %q, %v; want empty", empty, err)
	}
}

func TestParseKeyHex(t *testing.T) {
	if _, err := ParseKeyHex(strings.Repeat("ab", KeySize)); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if _, err := ParseKeyHex("abcd"); err == nil {
		t.Fatalf("short key accepted")
	}
	if _, err := ParseKeyHex(strings.Repeat("zz", KeySize)); err == nil {
		t.Fatalf("non-hex key accepted")
	}
}
