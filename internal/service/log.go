package service

import (
	"context"

	"campusfind/internal/middleware"
)

func logWarn(ctx context.Context, msg string, args ...any) {
	middleware.Logger.WarnContext(ctx, msg, args...)
}

func logInfo(ctx context.Context, msg string, args ...any) {
	middleware.Logger.InfoContext(ctx, msg, args...)
}
