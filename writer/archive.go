package writer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/Rendurdreams/CoinFetch/config"
	"github.com/Rendurdreams/CoinFetch/logger"
)

// Archiver writes each tick's raw API responses to S3, partitioned by kind
// and date. It is optional; archive failures are logged by the caller and
// never fail a tick.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	log    *logger.Log
}

// NewArchiver creates an S3 archiver from the archive configuration.
func NewArchiver(cfg *appconfig.Config) (*Archiver, error) {
	archive := cfg.Storage.Archive

	ctx := context.Background()
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(archive.Region)}
	if archive.AccessKeyID != "" && archive.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(archive.AccessKeyID, archive.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	log := logger.GetLogger()
	log.WithComponent("archiver").WithFields(logger.Fields{
		"bucket": archive.Bucket,
		"region": archive.Region,
		"prefix": archive.Prefix,
	}).Info("raw payload archive enabled")

	return &Archiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: archive.Bucket,
		prefix: strings.Trim(archive.Prefix, "/"),
		log:    log,
	}, nil
}

// Archive stores one raw response body under a time-partitioned key.
func (a *Archiver) Archive(ctx context.Context, kind string, ts time.Time, payload []byte) error {
	ts = ts.UTC()
	key := fmt.Sprintf("%s/%s/%s/%s-%s.json",
		a.prefix, kind, ts.Format("2006/01/02"), kind, ts.Format("150405"))
	if a.prefix == "" {
		key = strings.TrimPrefix(key, "/")
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	logger.IncrementArchiveWrite()
	a.log.WithComponent("archiver").WithFields(logger.Fields{
		"key":   key,
		"bytes": len(payload),
	}).Debug("archived raw payload")

	return nil
}
