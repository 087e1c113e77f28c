package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/zetsuserv/support-portal/internal/service"
)

// StartOTPPurge schedules the periodic removal of expired verification
// codes, complementing the lazy delete-on-verify path. Returns the cron
// runner so main can stop it on shutdown.
func StartOTPPurge(authService *service.AuthService, spec string, logger *zap.Logger) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		deleted, err := authService.PurgeExpiredOTPs(ctx)
		if err != nil {
			logger.Error("otp purge failed", zap.Error(err))
			return
		}
		if deleted > 0 {
			logger.Info("purged expired otp codes", zap.Int64("deleted", deleted))
		}
	})
	if err != nil {
		logger.Error("invalid otp purge schedule", zap.String("spec", spec), zap.Error(err))
		return c
	}
	c.Start()
	return c
}
