package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"crudview/internal/model"
	"crudview/internal/repository"
	"crudview/internal/storage"
)

var (
	ErrReaderNil = errors.New("reader is nil")
	ErrNoFile    = errors.New("document has no stored file")
	ErrNoStorage = errors.New("object storage is not configured")
)

// Uploader writes form file uploads to object storage under a key prefix.
type Uploader struct {
	store  storage.Storage
	prefix string
}

// NewUploader constructs an Uploader storing objects below prefix.
func NewUploader(store storage.Storage, prefix string) *Uploader {
	return &Uploader{store: store, prefix: prefix}
}

// Upload streams the content to object storage.
// originalFilename is used only to extract the extension; the stored name is UUID + extension.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64) (model.FileInfo, error) {
	if r == nil {
		return model.FileInfo{}, ErrReaderNil
	}
	if u.store == nil {
		return model.FileInfo{}, ErrNoStorage
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := path.Join(u.prefix, uuid.New().String()+filepath.Ext(originalFilename))
	info, err := u.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return model.FileInfo{}, fmt.Errorf("upload to storage: %w", err)
	}
	return model.FileInfo{
		Key:         info.Key,
		Filename:    originalFilename,
		Size:        info.Size,
		ContentType: info.ContentType,
	}, nil
}

// Discard removes a previously uploaded object; used to roll back failed saves.
func (u *Uploader) Discard(ctx context.Context, key string) error {
	if u.store == nil {
		return ErrNoStorage
	}
	return u.store.Delete(ctx, key)
}

// DocumentStore decorates the document table store so that stored files follow
// the lifecycle of their rows.
type DocumentStore struct {
	repository.Store[*model.Document]
	store storage.Storage
}

// NewDocumentStore constructs a DocumentStore.
func NewDocumentStore(store storage.Storage, repo repository.Store[*model.Document]) *DocumentStore {
	return &DocumentStore{Store: repo, store: store}
}

var _ repository.Store[*model.Document] = (*DocumentStore)(nil)

// Delete removes the stored object, then deletes its record.
// If object removal fails the row is kept so the file reference is not lost.
func (s *DocumentStore) Delete(ctx context.Context, doc *model.Document) error {
	if doc.StoragePath != "" && s.store != nil {
		if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	return s.Store.Delete(ctx, doc)
}

// DownloadURL returns a time-limited link to the stored file.
func (s *DocumentStore) DownloadURL(ctx context.Context, doc *model.Document, expiry time.Duration) (string, error) {
	if s.store == nil {
		return "", ErrNoStorage
	}
	if doc.StoragePath == "" {
		return "", ErrNoFile
	}
	return s.store.PresignGet(ctx, doc.StoragePath, expiry)
}
