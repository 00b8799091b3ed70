package api

import (
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected 表示上传文件被 clamd 判定为恶意文件。
var ErrInfected = errors.New("malicious file detected")

// VirusScanner 扫描上传内容；返回 nil 表示干净。
type VirusScanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner 通过 clamd INSTREAM 扫描文件。
type ClamdScanner struct {
	addr string
}

// NewClamdScanner 地址为空时返回 nil，表示不启用扫描。
func NewClamdScanner(addr string) VirusScanner {
	if addr == "" {
		return nil
	}
	return &ClamdScanner{addr: addr}
}

func (s *ClamdScanner) Scan(r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := clamd.NewClamd(s.addr).ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}
	for result := range results {
		switch result.Status {
		case clamd.RES_OK:
		case clamd.RES_FOUND:
			return fmt.Errorf("%w: %s", ErrInfected, result.Description)
		default:
			return fmt.Errorf("clamd scan: %s %s", result.Status, result.Description)
		}
	}
	return nil
}
