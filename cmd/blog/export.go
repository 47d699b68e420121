package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"blog-backend/internal/config"
	"blog-backend/internal/repository"
	"blog-backend/internal/repository/gormstore"
	"blog-backend/internal/service"
	"blog-backend/internal/storage"
)

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:        "export",
		Usage:       "Upload a JSON snapshot of all users and posts",
		Description: `Reads every user and post, drafts included, and uploads them as one JSON document to the configured S3 bucket.`,
		Action: func(cliCtx *cli.Context) error {
			cfg, logger, err := loadConfig(cliCtx)
			if err != nil {
				return err
			}

			db, err := openDatabase(cliCtx.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer gormstore.Close(db)

			exporter, err := buildExporter(cliCtx.Context, cfg, logger, gormstore.NewUserRepository(db), gormstore.NewPostRepository(db))
			if err != nil {
				return err
			}

			location, err := exporter.Export(cliCtx.Context)
			if err != nil {
				return err
			}
			fmt.Println(location)
			return nil
		},
	}
}

func exportsCmd() *cli.Command {
	return &cli.Command{
		Name:  "exports",
		Usage: "List uploaded snapshots",
		Action: func(cliCtx *cli.Context) error {
			cfg, logger, err := loadConfig(cliCtx)
			if err != nil {
				return err
			}

			exporter, err := buildExporter(cliCtx.Context, cfg, logger, nil, nil)
			if err != nil {
				return err
			}

			objects, err := exporter.List(cliCtx.Context)
			if err != nil {
				return err
			}
			for _, obj := range objects {
				modified := ""
				if obj.LastModified != nil {
					modified = obj.LastModified.Format(time.RFC3339)
				}
				fmt.Printf("%s\t%d\t%s\n", obj.Key, obj.Size, modified)
			}
			return nil
		},
	}
}

func buildExporter(ctx context.Context, cfg config.Config, logger *logrus.Logger, users repository.UserRepository, posts repository.PostRepository) (service.ExportService, error) {
	store, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return service.NewExportService(users, posts, store, service.ExportOptions{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
	}, logger), nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
