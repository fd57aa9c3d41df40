// Health Check Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"matrimony-match-engine/internal/config"
	"matrimony-match-engine/internal/handlers"
	"matrimony-match-engine/internal/services/cache"
	"matrimony-match-engine/internal/services/database"
	"matrimony-match-engine/internal/utils"
)

func main() {
	_ = utils.InitLogger("info")
	defer utils.Sync()
	logger := utils.GetLogger()

	checks := map[string]handlers.HealthCheck{"database": nil}

	// A missing dependency is reported by the check instead of failing cold start
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("Invalid configuration", utils.Error(err))
	} else {
		if db, err := database.New(cfg); err != nil {
			logger.Warn("Database unavailable", utils.Error(err))
			checks["database"] = func(context.Context) error { return err }
		} else {
			defer db.Close()
			checks["database"] = db.HealthCheck
		}

		if cfg.RedisURL != "" {
			if rc, err := cache.NewRankCache(cfg.RedisURL, cfg.RankCacheTTL); err != nil {
				logger.Warn("Redis unavailable", utils.Error(err))
				checks["redis"] = func(context.Context) error { return err }
			} else {
				defer rc.Close()
				checks["redis"] = rc.Ping
			}
		}
	}

	lambda.Start(handlers.NewHealthHandler(checks).Handle)
}
