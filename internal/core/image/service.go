package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	_ "golang.org/x/image/webp" // 支援 WebP

	aiimage "meal-planner/internal/core/ai/image"
	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultMIMEType 未指定 MIME 類型時的預設值
const DefaultMIMEType = "image/jpeg"

var supportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	processor    *aiimage.Processor
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64, maxDimension uint) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
		processor:    aiimage.NewProcessor(maxDimension),
	}
}

// Decode 解析 base64 或 data URI，data URI 內的 MIME 類型優先
func (s *Service) Decode(data, mimeType string) (provider.ImageAttachment, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return provider.ImageAttachment{}, common.ErrInvalidImageFormat.WithMessage("圖片內容為空")
	}

	if strings.HasPrefix(data, "data:") {
		header, payload, ok := strings.Cut(data, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return provider.ImageAttachment{}, common.ErrInvalidImageFormat.WithMessage("無效的 data URI")
		}
		mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		data = payload
	}
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return provider.ImageAttachment{}, common.ErrInvalidImageFormat.WithMessage(fmt.Sprintf("不支援的 MIME 類型：%s", mimeType))
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return provider.ImageAttachment{}, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode base64 data: %w", err))
	}
	if s.maxSizeBytes > 0 && int64(len(decoded)) > s.maxSizeBytes {
		return provider.ImageAttachment{}, common.ErrInvalidImageSize.Wrap(fmt.Errorf("image size %d exceeds maximum limit of %d bytes", len(decoded), s.maxSizeBytes))
	}

	return provider.ImageAttachment{Data: decoded, MIMEType: mimeType}, nil
}

// Normalize 驗證圖片格式，過大時縮小並重新編碼為 JPEG
func (s *Service) Normalize(att provider.ImageAttachment) (provider.ImageAttachment, error) {
	img, format, err := image.Decode(bytes.NewReader(att.Data))
	if err != nil {
		return provider.ImageAttachment{}, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode image: %w", err))
	}
	if !supportedFormats[format] {
		return provider.ImageAttachment{}, common.ErrInvalidImageFormat.WithMessage(fmt.Sprintf("不支援的圖片格式：%s", format))
	}

	fitted, resized := s.processor.Fit(img)
	if !resized && (format == "jpeg" || format == "png") {
		return provider.ImageAttachment{Data: att.Data, MIMEType: "image/" + format}, nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: 85}); err != nil {
		return provider.ImageAttachment{}, fmt.Errorf("failed to encode image as JPEG: %w", err)
	}

	common.LogDebug("圖片已正規化",
		zap.String("format", format),
		zap.Bool("resized", resized),
		zap.Int("original_bytes", len(att.Data)),
		zap.Int("encoded_bytes", buf.Len()),
	)
	return provider.ImageAttachment{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}
