package main

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/storage"
	"github.com/urfave/cli/v2"
)

func pullModelsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "s3-endpoint",
			Usage:    "S3-compatible endpoint hosting model artifacts",
			Required: true,
			EnvVars:  []string{"MODELS_S3_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:     "s3-access-key",
			Required: true,
			EnvVars:  []string{"MODELS_S3_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:     "s3-secret-key",
			Required: true,
			EnvVars:  []string{"MODELS_S3_SECRET_KEY"},
		},
		&cli.StringFlag{
			Name:     "s3-bucket",
			Required: true,
			EnvVars:  []string{"MODELS_S3_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "s3-prefix",
			Value:   "models/trained/",
			EnvVars: []string{"MODELS_S3_PREFIX"},
		},
		&cli.BoolFlag{
			Name:    "s3-use-ssl",
			Value:   true,
			EnvVars: []string{"MODELS_S3_USE_SSL"},
		},
		&cli.StringFlag{
			Name:    "models-dir",
			Usage:   "Local directory the server loads artifacts from",
			Value:   "./models/trained",
			EnvVars: []string{"MODELS_DIR"},
		},
	}
}

// pullModels mirrors the bucket's JSON artifacts into the local models
// directory so the server can run without S3 credentials.
func pullModels(c *cli.Context) error {
	client, err := storage.NewS3Client(storage.S3Config{
		Endpoint:  c.String("s3-endpoint"),
		AccessKey: c.String("s3-access-key"),
		SecretKey: c.String("s3-secret-key"),
		Bucket:    c.String("s3-bucket"),
		UseSSL:    c.Bool("s3-use-ssl"),
	})
	if err != nil {
		return err
	}

	ctx := c.Context
	prefix := c.String("s3-prefix")
	destDir := c.String("models-dir")

	objects, err := client.ListObjects(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list model artifacts: %w", err)
	}

	var keys []string
	for _, obj := range objects {
		if strings.HasSuffix(strings.ToLower(obj.Key), ".json") {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return fmt.Errorf("no model artifacts found under prefix %s", prefix)
	}
	sort.Strings(keys)

	for _, key := range keys {
		localPath := filepath.Join(destDir, filepath.Base(key))
		if err := client.DownloadObject(ctx, key, localPath); err != nil {
			return err
		}
		log.Printf("Pulled %s\n", filepath.Base(key))
	}

	log.Printf("Pulled %d model artifacts into %s\n", len(keys), destDir)
	return nil
}
