package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStorage implements Storage on a Google Cloud Storage bucket. Objects are
// named <prefix>/<owner>/<id>_<filename>.
type GCSStorage struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStorage creates a GCS client for cfg.GCSBucket.
func NewGCSStorage(ctx context.Context, cfg *Config) (*GCSStorage, error) {
	if cfg.GCSBucket == "" {
		return nil, fmt.Errorf("GCS bucket is required")
	}

	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSStorage{client: client, bucket: cfg.GCSBucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) ownerPrefix(owner string) string {
	return path.Join(s.prefix, sanitizeFilename(owner)) + "/"
}

// Upload stores a file and returns its metadata
func (s *GCSStorage) Upload(ctx context.Context, owner, filename, contentType string, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()
	name := s.ownerPrefix(owner) + fileID.String() + "_" + sanitizeFilename(filename)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"owner": owner, "name": filename}

	size, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload: %w", err)
	}

	created := time.Now().UTC()
	if attrs := w.Attrs(); attrs != nil {
		created = attrs.Created
	}

	return &FileInfo{
		ID:          fileID,
		Owner:       owner,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        name,
		CreatedAt:   created,
	}, nil
}

// Download retrieves a file by its ID
func (s *GCSStorage) Download(ctx context.Context, owner string, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, owner, fileID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.client.Bucket(s.bucket).Object(info.Path).NewReader(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	return rc, info, nil
}

// Delete removes a file by its ID
func (s *GCSStorage) Delete(ctx context.Context, owner string, fileID uuid.UUID) error {
	info, err := s.GetInfo(ctx, owner, fileID)
	if err != nil {
		return err
	}

	err = s.client.Bucket(s.bucket).Object(info.Path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete GCS object: %w", err)
	}
	return nil
}

// List returns all files for an owner, oldest first
func (s *GCSStorage) List(ctx context.Context, owner string) ([]*FileInfo, error) {
	files, err := s.query(ctx, s.ownerPrefix(owner), owner)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.Before(files[j].CreatedAt) })
	return files, nil
}

// GetInfo returns metadata for a file without downloading
func (s *GCSStorage) GetInfo(ctx context.Context, owner string, fileID uuid.UUID) (*FileInfo, error) {
	files, err := s.query(ctx, s.ownerPrefix(owner)+fileID.String()+"_", owner)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	return files[0], nil
}

func (s *GCSStorage) query(ctx context.Context, prefix, owner string) ([]*FileInfo, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	files := []*FileInfo{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list GCS objects: %w", err)
		}
		if info, ok := objectInfo(attrs, owner); ok {
			files = append(files, info)
		}
	}
	return files, nil
}

// objectInfo parses the id from an object named <prefix>/<owner>/<id>_<name>.
func objectInfo(attrs *storage.ObjectAttrs, owner string) (*FileInfo, bool) {
	base := path.Base(attrs.Name)
	idPart, rest, ok := strings.Cut(base, "_")
	if !ok {
		return nil, false
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, false
	}

	name := rest
	if n, ok := attrs.Metadata["name"]; ok && n != "" {
		name = n
	}
	return &FileInfo{
		ID:          id,
		Owner:       owner,
		Name:        name,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Path:        attrs.Name,
		CreatedAt:   attrs.Created,
	}, true
}
