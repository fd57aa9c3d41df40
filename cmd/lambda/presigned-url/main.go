// Presigned upload URL Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"matrimony-match-engine/internal/config"
	"matrimony-match-engine/internal/handlers"
	s3service "matrimony-match-engine/internal/services/s3"
	"matrimony-match-engine/internal/utils"
)

func main() {
	_ = utils.InitLogger("info")
	defer utils.Sync()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	s3Svc, err := s3service.NewService(context.Background(), cfg)
	if err != nil {
		panic("Failed to create S3 service: " + err.Error())
	}

	lambda.Start(handlers.NewPresignedURLHandler(s3Svc).Handle)
}
