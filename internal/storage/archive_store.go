package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"catatuang/api/internal/config"
)

// ArchiveStore keeps exported data snapshots in object storage.
type ArchiveStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewArchiveStore(cfg config.StorageConfig) (*ArchiveStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ArchiveStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ArchiveStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketArchive)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketArchive, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.BucketArchive, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.BucketArchive, err)
		}
	}
	return nil
}

// PutSnapshot stores one export object under key.
func (s *ArchiveStore) PutSnapshot(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.cfg.BucketArchive, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", key, err)
	}
	return nil
}
