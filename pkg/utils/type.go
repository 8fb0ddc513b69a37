package utils

import "fmt"

// TypeName 이벤트 로깅용으로 런타임 타입 이름을 문자열로 반환
func TypeName(v any) string {
	return fmt.Sprintf("%T", v)
}