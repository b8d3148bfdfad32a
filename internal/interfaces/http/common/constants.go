package common

import "time"

const (
	// MaxRequestBody limits JSON request bodies.
	MaxRequestBody = 1 << 20
	// RequestTimeout bounds store work done for one request.
	RequestTimeout = 5 * time.Second
	// AssistTimeout bounds requests that call the model gateway.
	AssistTimeout = 45 * time.Second
)
