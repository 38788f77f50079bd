package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"jobverse/internal/errcode"
)

// 上传校验失败时返回给客户端的错误。
var (
	ErrUnsupportedFileType = errcode.BadRequest("Unsupported file type.")
	ErrFileTooLarge        = errcode.BadRequest("File is too large.")
	ErrMaliciousFile       = errcode.BadRequest("Malicious file detected.")
)

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ObjectStore 是上传流程依赖的最小对象存储接口，*Client 实现了它。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// Uploader 负责类型过滤、大小限制、可选病毒扫描，然后写入对象存储。
type Uploader struct {
	store    ObjectStore
	scanner  Scanner
	maxBytes int64
}

// NewUploader scanner 可以为 nil。
func NewUploader(store ObjectStore, scanner Scanner, maxBytes int64) *Uploader {
	return &Uploader{store: store, scanner: scanner, maxBytes: maxBytes}
}

// Put 校验并上传文件，返回 "<prefix>/<uuid><ext>" 形式的对象 key。
func (u *Uploader) Put(ctx context.Context, prefix string, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return "", ErrUnsupportedFileType
	}
	if u.maxBytes > 0 && file.Size > u.maxBytes {
		return "", ErrFileTooLarge
	}

	if u.scanner != nil {
		if err := u.scan(ctx, file); err != nil {
			return "", err
		}
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer reader.Close()

	objectKey := fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), ext)
	if _, err := u.store.UploadFile(ctx, objectKey, reader, file.Size, contentType); err != nil {
		return "", err
	}
	return objectKey, nil
}

// Remove 删除旧对象，key 为空时不做任何事。
func (u *Uploader) Remove(ctx context.Context, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	return u.store.DeleteObject(ctx, objectKey)
}

func (u *Uploader) scan(ctx context.Context, file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload for scan: %w", err)
	}
	defer reader.Close()

	if err := u.scanner.Scan(ctx, reader); err != nil {
		if errors.Is(err, ErrInfected) {
			return ErrMaliciousFile.Wrap(err)
		}
		return fmt.Errorf("scan upload: %w", err)
	}
	return nil
}
