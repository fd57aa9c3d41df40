// Profile import Lambda entry point, triggered by uploads to the import bucket
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"matrimony-match-engine/internal/config"
	"matrimony-match-engine/internal/handlers"
	"matrimony-match-engine/internal/services/database"
	"matrimony-match-engine/internal/services/importer"
	s3service "matrimony-match-engine/internal/services/s3"
	"matrimony-match-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	db, err := database.New(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}
	defer db.Close()

	s3Svc, err := s3service.NewService(context.Background(), cfg)
	if err != nil {
		panic("Failed to create S3 service: " + err.Error())
	}

	imp := importer.NewService(database.NewProfileRepository(db), s3Svc)
	handler := handlers.NewProfileImportHandler(imp, s3Svc.Bucket())

	lambda.Start(handler.Handle)
}
