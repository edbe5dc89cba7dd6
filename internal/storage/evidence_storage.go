// Package storage файловое хранилище документов, подтверждающих членство в PRO.
package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// sniffLen столько байт filetype нужно для распознавания сигнатуры.
const sniffLen = 512

var allowedMIME = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

// StoredDocument ссылка на сохранённый документ и его реальный тип.
type StoredDocument struct {
	Ref      string `json:"ref"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// EvidenceStorage хранит документы в каталоге rootPath/<account_id>/.
type EvidenceStorage struct {
	rootPath       string
	maxUploadBytes int64
	now            func() time.Time
}

func NewEvidenceStorage(rootPath string, maxUploadMB int64) (*EvidenceStorage, error) {
	if err := os.MkdirAll(rootPath, 0o750); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &EvidenceStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
		now:            time.Now,
	}, nil
}

func (s *EvidenceStorage) MaxUploadBytes() int64 { return s.maxUploadBytes }

// Save определяет тип по сигнатуре, а не по имени файла, и сохраняет документ.
// Недопустимый тип или превышение лимита возвращают ошибку валидации.
func (s *EvidenceStorage) Save(ctx context.Context, accountID uuid.UUID, r io.Reader) (*StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("storage: не удалось прочитать документ: %w", err)
	}
	if len(head) == 0 {
		return nil, apperror.Validation("документ пустой")
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !allowedMIME[kind.MIME.Value] {
		return nil, apperror.Validation("допустимы только PDF, JPEG, PNG и WebP")
	}

	accountDir := filepath.Join(s.rootPath, accountID.String())
	if err := os.MkdirAll(accountDir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог аккаунта: %w", err)
	}

	fileName := fmt.Sprintf("%d_%s.%s", s.now().UnixNano(), uuid.NewString()[:8], kind.Extension)
	targetPath := filepath.Join(accountDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, &io.LimitedReader{R: br, N: s.maxUploadBytes + 1})
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, apperror.Validation(fmt.Sprintf("размер документа превышает %d МБ", s.maxUploadBytes/(1024*1024)))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return &StoredDocument{
		Ref:      filepath.ToSlash(filepath.Join(accountID.String(), fileName)),
		MIMEType: kind.MIME.Value,
		Size:     written,
	}, nil
}

// Open открывает документ по ссылке; ссылки за пределами rootPath отклоняются.
func (s *EvidenceStorage) Open(ctx context.Context, ref string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.NotFound("документ не найден")
		}
		return nil, fmt.Errorf("storage: не удалось открыть документ: %w", err)
	}
	return f, nil
}

// Delete удаляет документ; отсутствие файла не считается ошибкой.
func (s *EvidenceStorage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

func (s *EvidenceStorage) resolve(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", apperror.Validation("некорректная ссылка на документ")
	}
	return filepath.Join(s.rootPath, clean), nil
}
