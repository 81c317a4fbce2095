package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// ObjectInfo describes one stored blob returned by List.
type ObjectInfo struct {
	Name    string
	Size    int64
	Created time.Time
}

// ListOptions mirror the blob store's paging contract: limit/offset over
// entries under a prefix, sorted by name.
type ListOptions struct {
	Limit      int
	Offset     int
	Descending bool
}

// BucketService is the document blob store. Keys are namespaced by owner id,
// so a caller can list exactly its own uploads by prefix.
type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	RemoveFiles(ctx context.Context, keys []string) error
	ListKeys(ctx context.Context, prefix string, opts ListOptions) ([]ObjectInfo, error)
	GetPublicURL(key string) string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
	cdnDomain     string
}

func NewBucketService(log *logger.Logger, bucketName, cdnDomain string) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	if strings.TrimSpace(bucketName) == "" {
		return nil, fmt.Errorf("bucket name required")
	}

	ctx := context.Background()
	saPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	var stClient *storage.Client
	var err error
	if saPath != "" {
		stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
	} else {
		stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    bucketName,
		cdnDomain:     cdnDomain,
	}, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) RemoveFiles(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for _, key := range keys {
		o := bs.storageClient.Bucket(bs.bucketName).Object(key)
		if err := o.Delete(ctx); err != nil {
			return fmt.Errorf("delete object %q: %w", key, err)
		}
	}
	return nil
}

func (bs *bucketService) ListKeys(ctx context.Context, prefix string, opts ListOptions) ([]ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	it := bs.storageClient.Bucket(bs.bucketName).Objects(ctx, &storage.Query{Prefix: prefix})
	var entries []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		if attrs.Name == "" || strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		entries = append(entries, ObjectInfo{
			Name:    attrs.Name,
			Size:    attrs.Size,
			Created: attrs.Created,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if opts.Descending {
			return entries[i].Name > entries[j].Name
		}
		return entries[i].Name < entries[j].Name
	})
	if opts.Offset > 0 {
		if opts.Offset >= len(entries) {
			return nil, nil
		}
		entries = entries[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(entries) {
		entries = entries[:opts.Limit]
	}
	return entries, nil
}

func (bs *bucketService) GetPublicURL(key string) string {
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}
