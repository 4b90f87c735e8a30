package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/galgamex/fuxiaochen/internal/model"
	appErr "github.com/galgamex/fuxiaochen/internal/pkg/errors"
	"github.com/galgamex/fuxiaochen/internal/storage"
)

const (
	DefaultFolder    = "uploads"
	DefaultMaxKeys   = 100
	DefaultURLExpiry = time.Hour
)

// allowedTypes maps each upload category to its accepted content types.
// The declared content type is trusted as-is, no sniffing.
var allowedTypes = map[string][]string{
	"image": {"image/jpeg", "image/png", "image/gif", "image/webp"},
	"document": {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/plain",
	},
	"video": {"video/mp4", "video/webm", "video/ogg"},
	"audio": {"audio/mp3", "audio/wav", "audio/ogg"},
}

var sizeLimits = map[string]int64{
	"image":    5 * 1024 * 1024,
	"document": 10 * 1024 * 1024,
	"video":    100 * 1024 * 1024,
	"audio":    20 * 1024 * 1024,
}

type FileService struct {
	store storage.Storage
}

type UploadResult struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	Category     string `json:"category"`
}

type FileListing struct {
	Files  []model.FileObject `json:"files"`
	Total  int                `json:"total"`
	Prefix string             `json:"prefix"`
}

type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn"`
}

func NewFileService(store storage.Storage) *FileService {
	return &FileService{store: store}
}

// Categorize resolves a content type to its upload category, or "" when the
// type is not allowed.
func Categorize(contentType string) string {
	for category, types := range allowedTypes {
		for _, t := range types {
			if t == contentType {
				return category
			}
		}
	}
	return ""
}

func validateUpload(contentType string, size int64) (string, error) {
	category := Categorize(contentType)
	if category == "" {
		return "", fmt.Errorf("%w: unsupported file type %s", appErr.ErrInvalid, contentType)
	}
	if size > sizeLimits[category] {
		return "", fmt.Errorf("%w: file exceeds %dMB limit", appErr.ErrInvalid, sizeLimits[category]/(1024*1024))
	}
	return category, nil
}

func (s *FileService) Upload(ctx context.Context, userID, folder, name, contentType string, size int64, body io.Reader) (*UploadResult, error) {
	if name == "" {
		return nil, appErr.ErrInvalid
	}
	category, err := validateUpload(contentType, size)
	if err != nil {
		return nil, err
	}
	key := storage.BuildKey(name, userFolder(folder, userID))
	fileURL, err := s.store.Put(ctx, key, body, contentType, map[string]string{
		"original-name": name,
		"uploaded-by":   userID,
		"category":      category,
	})
	if err != nil {
		return nil, err
	}
	return &UploadResult{
		Key:          key,
		URL:          fileURL,
		OriginalName: name,
		Size:         size,
		Type:         contentType,
		Category:     category,
	}, nil
}

// List is scoped to the caller by construction: the prefix always embeds the
// user id, so other users' objects can never appear in the result.
func (s *FileService) List(ctx context.Context, userID, folder string, maxKeys int32) (*FileListing, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	prefix := userFolder(folder, userID) + "/"
	files, err := s.store.List(ctx, prefix, maxKeys)
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].Name = baseName(files[i].Key)
		files[i].URL = "/api/download?key=" + url.QueryEscape(files[i].Key)
	}
	return &FileListing{Files: files, Total: len(files), Prefix: prefix}, nil
}

func (s *FileService) Delete(ctx context.Context, userID, key string) error {
	if err := checkOwnership(userID, key); err != nil {
		return err
	}
	exists, _, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return appErr.ErrNotFound
	}
	return s.store.Delete(ctx, key)
}

func (s *FileService) DownloadURL(ctx context.Context, userID, key string, ttl time.Duration) (string, error) {
	if err := checkOwnership(userID, key); err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = DefaultURLExpiry
	}
	return s.store.PresignGet(ctx, key, ttl)
}

func (s *FileService) PresignUpload(ctx context.Context, userID, folder, name, contentType string) (*PresignedUpload, error) {
	if name == "" || contentType == "" {
		return nil, appErr.ErrInvalid
	}
	if Categorize(contentType) == "" {
		return nil, fmt.Errorf("%w: unsupported file type %s", appErr.ErrInvalid, contentType)
	}
	key := storage.BuildKey(name, userFolder(folder, userID))
	uploadURL, err := s.store.PresignPut(ctx, key, contentType, DefaultURLExpiry)
	if err != nil {
		return nil, err
	}
	return &PresignedUpload{
		UploadURL: uploadURL,
		Key:       key,
		ExpiresIn: int64(DefaultURLExpiry / time.Second),
	}, nil
}

// checkOwnership is a textual convention: a key belongs to the caller when it
// contains the "/<userID>/" segment. List is safe by construction, delete and
// download rely on this check alone.
func checkOwnership(userID, key string) error {
	if userID == "" || key == "" {
		return appErr.ErrInvalid
	}
	if !strings.Contains(key, "/"+userID+"/") {
		return appErr.ErrForbidden
	}
	return nil
}

func userFolder(folder, userID string) string {
	if folder == "" {
		folder = DefaultFolder
	}
	return strings.Trim(folder, "/") + "/" + userID
}

func baseName(key string) string {
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		return key[idx+1:]
	}
	return key
}
