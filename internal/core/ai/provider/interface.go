package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Kind 提示詞種類
type Kind int

const (
	KindText Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return "with_image"
	}
	return "text_only"
}

// ImageAttachment 附加給模型的圖片
type ImageAttachment struct {
	Data     []byte
	MIMEType string
}

// Base64 回傳不含前綴的 base64 內容
func (a ImageAttachment) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// DataURI 回傳 data:<mime>;base64,<data>
func (a ImageAttachment) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, a.Base64())
}

// Format 回傳 MIME 子類型，例如 image/png -> png
func (a ImageAttachment) Format() string {
	if i := strings.Index(a.MIMEType, "/"); i != -1 {
		return a.MIMEType[i+1:]
	}
	return "jpeg"
}

// Prompt 送往模型的提示詞：純文字或文字加圖片
type Prompt struct {
	kind      Kind
	text      string
	image     ImageAttachment
	cacheable bool
	// accept 決定回覆是否寫入快取，nil 表示一律寫入
	accept func(reply string) bool
}

// TextOnly 建立純文字提示詞
func TextOnly(text string) Prompt {
	return Prompt{kind: KindText, text: text}
}

// WithImage 建立附圖提示詞
func WithImage(text string, image ImageAttachment) Prompt {
	return Prompt{kind: KindImage, text: text, image: image}
}

// Cacheable 標記結果可被快取
func (p Prompt) Cacheable() Prompt {
	p.cacheable = true
	return p
}

// CacheableIf 標記可快取，但只有 accept 通過的回覆才會寫入
func (p Prompt) CacheableIf(accept func(reply string) bool) Prompt {
	p.cacheable = true
	p.accept = accept
	return p
}

// ShouldCache 回覆是否可寫入快取
func (p Prompt) ShouldCache(reply string) bool {
	if !p.cacheable {
		return false
	}
	return p.accept == nil || p.accept(reply)
}

func (p Prompt) Kind() Kind        { return p.kind }
func (p Prompt) Text() string      { return p.text }
func (p Prompt) IsCacheable() bool { return p.cacheable }

// Image 僅在 KindImage 時回傳 true
func (p Prompt) Image() (ImageAttachment, bool) {
	if p.kind != KindImage {
		return ImageAttachment{}, false
	}
	return p.image, true
}

// ReplaceImage 回傳換上新圖片的提示詞，純文字提示詞原樣回傳
func (p Prompt) ReplaceImage(image ImageAttachment) Prompt {
	if p.kind != KindImage {
		return p
	}
	p.image = image
	return p
}

// Completer 模型補全能力
type Completer interface {
	// Complete 執行一次模型請求並回傳文字結果
	Complete(ctx context.Context, prompt Prompt) (string, error)

	// Name 後端與模型名稱，用於日誌與指標
	Name() string
}

// Pinger 可檢查後端是否可用的 Completer
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config 定義 AI 提供者共用設定
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
}
