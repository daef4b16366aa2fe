package pipelineredis

import "github.com/Abraxas-365/pagelift/pkg/errx"

var redisErrors = errx.NewRegistry("PROGRESS_REDIS")

var (
	ErrLatest    = redisErrors.Register("LATEST", errx.TypeExternal, 500, "Redis progress lookup failed")
	ErrUnmarshal = redisErrors.Register("UNMARSHAL", errx.TypeInternal, 500, "Failed to unmarshal progress snapshot")
)
