package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/galgamex/fuxiaochen/internal/pkg/response"
	"github.com/galgamex/fuxiaochen/internal/service"
)

type FileHandler struct {
	files *service.FileService
}

func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// GET /api/files?folder=&maxKeys=
func (h *FileHandler) List(c *gin.Context) {
	maxKeys := int64(service.DefaultMaxKeys)
	if raw := c.Query("maxKeys"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, "invalid maxKeys")
			return
		}
		maxKeys = parsed
	}
	listing, err := h.files.List(c.Request.Context(), getUserID(c), c.Query("folder"), int32(maxKeys))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, listing)
}

// DELETE /api/files?key=
func (h *FileHandler) Delete(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		response.Error(c, http.StatusBadRequest, "key is required")
		return
	}
	if err := h.files.Delete(c.Request.Context(), getUserID(c), key); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, "file deleted")
}

// GET /api/download?key=&expiresIn=
func (h *FileHandler) DownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		response.Error(c, http.StatusBadRequest, "key is required")
		return
	}
	expiresIn := int64(service.DefaultURLExpiry / time.Second)
	if raw := c.Query("expiresIn"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, "invalid expiresIn")
			return
		}
		expiresIn = parsed
	}
	downloadURL, err := h.files.DownloadURL(c.Request.Context(), getUserID(c), key, time.Duration(expiresIn)*time.Second)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"downloadUrl": downloadURL,
		"expiresIn":   expiresIn,
		"key":         key,
	})
}

// POST /api/upload (multipart form: file, folder)
func (h *FileHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to open file")
		return
	}
	defer opened.Close()

	contentType := file.Header.Get("Content-Type")
	result, err := h.files.Upload(c.Request.Context(), getUserID(c), c.PostForm("folder"), file.Filename, contentType, file.Size, opened)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// GET /api/upload?fileName=&contentType=&folder=
func (h *FileHandler) PresignUpload(c *gin.Context) {
	fileName := c.Query("fileName")
	contentType := c.Query("contentType")
	if fileName == "" || contentType == "" {
		response.Error(c, http.StatusBadRequest, "fileName and contentType are required")
		return
	}
	result, err := h.files.PresignUpload(c.Request.Context(), getUserID(c), c.Query("folder"), fileName, contentType)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
