// Package relay 负责图片中转：解开令牌、向源站发起流式请求，
// 把 Content-Type 和字节流原样转发给客户端，全程不在响应里暴露源站地址。
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/aravindchilpa/articalapi/internal/token"
)

const fetchTimeout = 30 * time.Second

// ErrFetch 表示源站请求失败（网络错误、非 2xx、超时）。
// 详细原因只进日志，错误值本身不携带已解密的源站地址。
var ErrFetch = errors.New("relay: origin fetch failed")

// Relay 持有令牌编解码器与转发用的 HTTP 客户端。
type Relay struct {
	codec *token.Codec
	httpc *http.Client
}

// New 构造图片中转器。
func New(codec *token.Codec) *Relay {
	return &Relay{
		codec: codec,
		httpc: &http.Client{Timeout: fetchTimeout},
	}
}

// Open 解码令牌并向源站发起请求，返回响应体与 Content-Type。
// 请求挂在调用方的 ctx 上：客户端断开时流复制停止、源站连接随之释放。
// 调用方负责 Close 返回的 body。
func (r *Relay) Open(ctx context.Context, tok string) (io.ReadCloser, string, error) {
	origin, err := r.codec.Decode(tok)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin, nil)
	if err != nil {
		log.Printf("relay: build origin request failed: %v", err)
		return nil, "", ErrFetch
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		// err 里含有源站地址，只进日志
		log.Printf("relay: origin fetch failed: %v", err)
		return nil, "", ErrFetch
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		log.Printf("relay: origin returned status %d", resp.StatusCode)
		return nil, "", fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}
