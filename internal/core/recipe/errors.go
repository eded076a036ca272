package recipe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrRateLimited 簡易生成路徑遇到上游 429
var ErrRateLimited = errors.New("límite de solicitudes alcanzado, intente de nuevo en unos minutos")

// GenerationError 重試用盡或遇到不可重試錯誤
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("no se pudo generar la receta tras %d intento(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ConnectionError 模型服務無法連線
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("no se pudo conectar con el modelo, verifique que el servicio del modelo esté en ejecución: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

var connectionPatterns = []string{"fetch", "network", "connection refused", "no such host"}

// IsConnectionFailure 判斷錯誤是否來自傳輸層無法連線
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range connectionPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isRateLimit(err error) bool {
	return err != nil && strings.Contains(err.Error(), "429")
}

// classifyFailure 最終錯誤：連線失敗回傳 ConnectionError，其餘包成 GenerationError
func classifyFailure(attempts int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &GenerationError{Attempts: attempts, Err: err}
	}
	if IsConnectionFailure(err) {
		return &ConnectionError{Err: err}
	}
	return &GenerationError{Attempts: attempts, Err: err}
}
