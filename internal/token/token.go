// Package token 负责把远程图片地址加密成对客户端不透明的令牌，
// 以及把令牌还原成原始地址。客户端只会看到令牌，永远看不到源站。
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// 密钥固定 32 字节（AES-256），部署期间不可变更；
// 换密钥会让所有已签发的令牌失效，令牌本身是短命的视图产物，可以接受。
const KeySize = 32

// ImageProxyPath 是令牌对外暴露的固定路由，encode 产出的公开地址都挂在这条路径下。
const ImageProxyPath = "/image-urls"

// ErrDecode 表示令牌格式错误或解密失败（被篡改、密钥不符、被截断）。
// 对外只暴露这个错误，不携带任何已解密内容。
var ErrDecode = errors.New("token: decode failed")

// Codec 持有进程级只读密钥，Encode 与 Decode 必须使用同一个实例（或同一密钥）。
type Codec struct {
	aead      cipher.AEAD
	publicURL string // 例如 https://api.example.com，尾部不带斜杠
}

// NewCodec 用 32 字节密钥构造编解码器。publicBaseURL 是令牌公开地址的前缀。
func NewCodec(key []byte, publicBaseURL string) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("token: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("token: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("token: init gcm: %w", err)
	}
	return &Codec{
		aead:      aead,
		publicURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Encode 把原始地址加密为 hex(nonce):base64(ciphertext) 形式的令牌。
// 每次调用都从 crypto/rand 取新 nonce，同一地址两次编码得到不同令牌，
// 避免令牌被关联或被中间层缓存。
func (c *Codec) Encode(rawURL string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("token: generate nonce: %w", err)
	}
	ciphertext := c.aead.Seal(nil, nonce, []byte(rawURL), nil)
	return hex.EncodeToString(nonce) + ":" + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decode 还原令牌为原始地址。任何形态的失败（分隔符数量不对、hex/base64
// 非法、认证解密失败）都归一为 ErrDecode，绝不返回部分解密的结果。
func (c *Codec) Decode(tok string) (string, error) {
	parts := strings.Split(tok, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: malformed token", ErrDecode)
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", fmt.Errorf("%w: bad nonce", ErrDecode)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding", ErrDecode)
	}
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: decrypt", ErrDecode)
	}
	return string(plaintext), nil
}

// WrapURL 把原始地址编码后包装成可直接访问的公开地址：
// <publicBaseURL>/image-urls?url=<escaped token>。
func (c *Codec) WrapURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", nil
	}
	tok, err := c.Encode(rawURL)
	if err != nil {
		return "", err
	}
	return c.publicURL + ImageProxyPath + "?url=" + url.QueryEscape(tok), nil
}

// ParseKeyHex 解析 64 位十六进制字符串为密钥字节。
func ParseKeyHex(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("token: key is not valid hex: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("token: key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}
