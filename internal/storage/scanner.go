package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected 表示 clamd 在上传内容中发现了病毒特征。
var ErrInfected = errors.New("malicious file detected")

// Scanner 检查上传内容，发现威胁时返回 ErrInfected。
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// ClamdScanner 通过 clamd INSTREAM 扫描文件。
type ClamdScanner struct {
	client *clamd.Clamd
}

// NewClamdScanner 地址为空时返回 nil，表示不扫描。
func NewClamdScanner(addr string) *ClamdScanner {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

func (s *ClamdScanner) Scan(ctx context.Context, r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan stream: %w", err)
	}

	var scanErr error
	for result := range results {
		if scanErr != nil {
			continue
		}
		switch result.Status {
		case clamd.RES_OK:
		case clamd.RES_FOUND:
			scanErr = fmt.Errorf("%w: %s", ErrInfected, result.Description)
		default:
			scanErr = fmt.Errorf("clamd scan: %s %s", result.Status, result.Description)
		}
	}
	if scanErr != nil {
		return scanErr
	}
	return ctx.Err()
}
