package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/galgamex/fuxiaochen/internal/model"
	appErr "github.com/galgamex/fuxiaochen/internal/pkg/errors"
	"github.com/galgamex/fuxiaochen/internal/storage"
)

type fakeStorage struct {
	objects    map[string][]byte
	metadata   map[string]map[string]string
	listPrefix string
	deleted    []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:  make(map[string][]byte),
		metadata: make(map[string]map[string]string),
	}
}

func (f *fakeStorage) Put(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) (string, error) {
	data, _ := io.ReadAll(body)
	f.objects[key] = data
	f.metadata[key] = metadata
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) Exists(ctx context.Context, key string) (bool, *storage.ObjectMeta, error) {
	data, ok := f.objects[key]
	if !ok {
		return false, nil, nil
	}
	return true, &storage.ObjectMeta{Size: int64(len(data))}, nil
}

func (f *fakeStorage) List(ctx context.Context, prefix string, maxKeys int32) ([]model.FileObject, error) {
	f.listPrefix = prefix
	var files []model.FileObject
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			files = append(files, model.FileObject{Key: key, Size: int64(len(data))})
		}
	}
	return files, nil
}

func (f *fakeStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

func (f *fakeStorage) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "https://signed.example.com/put/" + key, nil
}

func TestUpload_RejectsUnknownContentType(t *testing.T) {
	svc := NewFileService(newFakeStorage())

	_, err := svc.Upload(context.Background(), "u1", "", "evil.exe", "application/x-msdownload", 10, bytes.NewReader(nil))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	svc := NewFileService(newFakeStorage())

	_, err := svc.Upload(context.Background(), "u1", "", "big.png", "image/png", 6*1024*1024, bytes.NewReader(nil))
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Contains(t, err.Error(), "5MB")
}

func TestUpload_KeyEmbedsFolderAndUser(t *testing.T) {
	store := newFakeStorage()
	svc := NewFileService(store)

	result, err := svc.Upload(context.Background(), "u1", "", "pic.png", "image/png", 4, bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.Key, "uploads/u1/pic_"))
	require.Equal(t, "image", result.Category)
	require.Equal(t, "https://cdn.example.com/"+result.Key, result.URL)
	require.Equal(t, "u1", store.metadata[result.Key]["uploaded-by"])
	require.Equal(t, "pic.png", store.metadata[result.Key]["original-name"])
}

func TestList_ScopesPrefixToCaller(t *testing.T) {
	store := newFakeStorage()
	store.objects["uploads/u1/a.png"] = []byte("1")
	store.objects["uploads/u2/b.png"] = []byte("2")
	svc := NewFileService(store)

	listing, err := svc.List(context.Background(), "u1", "uploads", 0)
	require.NoError(t, err)
	require.Equal(t, "uploads/u1/", store.listPrefix)
	require.Equal(t, 1, listing.Total)
	require.Equal(t, "uploads/u1/a.png", listing.Files[0].Key)
	require.Equal(t, "a.png", listing.Files[0].Name)
	require.Contains(t, listing.Files[0].URL, "/api/download?key=")
}

func TestDelete_ForbiddenForForeignKey(t *testing.T) {
	store := newFakeStorage()
	store.objects["uploads/u2/other.png"] = []byte("x")
	svc := NewFileService(store)

	err := svc.Delete(context.Background(), "u1", "uploads/u2/other.png")
	require.ErrorIs(t, err, appErr.ErrForbidden)
	require.Contains(t, store.objects, "uploads/u2/other.png")
}

func TestDelete_NotFoundForMissingKey(t *testing.T) {
	svc := NewFileService(newFakeStorage())

	err := svc.Delete(context.Background(), "u1", "uploads/u1/missing.png")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDelete_RemovesOwnedObject(t *testing.T) {
	store := newFakeStorage()
	store.objects["uploads/u1/a.png"] = []byte("x")
	svc := NewFileService(store)

	require.NoError(t, svc.Delete(context.Background(), "u1", "uploads/u1/a.png"))
	require.Equal(t, []string{"uploads/u1/a.png"}, store.deleted)
}

func TestDownloadURL_ForbiddenForForeignKey(t *testing.T) {
	svc := NewFileService(newFakeStorage())

	_, err := svc.DownloadURL(context.Background(), "u1", "uploads/u2/other.png", time.Hour)
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestPresignUpload_ValidatesContentType(t *testing.T) {
	svc := NewFileService(newFakeStorage())

	_, err := svc.PresignUpload(context.Background(), "u1", "", "a.bin", "application/octet-stream")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	result, err := svc.PresignUpload(context.Background(), "u1", "docs", "a.pdf", "application/pdf")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.Key, "docs/u1/a_"))
	require.Equal(t, int64(3600), result.ExpiresIn)
}

func TestCategorize(t *testing.T) {
	require.Equal(t, "image", Categorize("image/webp"))
	require.Equal(t, "document", Categorize("text/plain"))
	require.Equal(t, "audio", Categorize("audio/wav"))
	require.Equal(t, "", Categorize("image/svg+xml"))
}

func TestCheckOwnership(t *testing.T) {
	require.NoError(t, checkOwnership("u1", "uploads/u1/a.png"))
	require.ErrorIs(t, checkOwnership("u1", "uploads/u11/a.png"), appErr.ErrForbidden)
	require.ErrorIs(t, checkOwnership("u1", ""), appErr.ErrInvalid)
}
