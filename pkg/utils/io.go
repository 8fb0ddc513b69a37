package utils

import (
	"io"
	"log/slog"
)

// CloseWithLog 리소스를 닫고 에러 발생 시 로그만 남기는 헬퍼 함수
// 소스 종료 경로에서 에러를 전파할 곳이 없을 때 사용
func CloseWithLog(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Error("Error closing resource", "resource", c, "err", err)
	}
}