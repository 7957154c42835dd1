package cache

import "fmt"

func CompletionStatusKey(completionID string) string {
	return fmt.Sprintf("completion:%s", completionID)
}

func RateLimitKey(principal string) string {
	return fmt.Sprintf("ratelimit:%s", principal)
}
