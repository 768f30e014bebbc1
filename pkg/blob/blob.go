// Package blob stores uploaded receipt images on the local filesystem and
// serves them under a public base URL.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const receiptsDir = "receipts"

var ErrInvalidOwner = errors.New("invalid owner id")

// ProgressFunc receives the uploaded fraction in [0, 1].
type ProgressFunc func(fraction float64)

type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Root is the directory served under /receipts/.
func (s *LocalStore) Root() string {
	return filepath.Join(s.dir, receiptsDir)
}

type progressReader struct {
	r        io.Reader
	ctx      context.Context
	size     int64
	read     int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.progress != nil && p.size > 0 && n > 0 {
		f := float64(p.read) / float64(p.size)
		if f > 1 {
			f = 1
		}
		p.progress(f)
	}
	return n, err
}

// Upload writes r to receipts/{ownerID}/{uuid}.jpg and returns its public URL.
// size may be unknown (<= 0), in which case progress is reported only at the end.
func (s *LocalStore) Upload(ctx context.Context, ownerID string, r io.Reader, size int64, progress ProgressFunc) (string, error) {
	if ownerID == "" || ownerID != filepath.Base(ownerID) || strings.HasPrefix(ownerID, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidOwner, ownerID)
	}

	dir := filepath.Join(s.Root(), ownerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	_, err = io.Copy(tmp, &progressReader{r: r, ctx: ctx, size: size, progress: progress})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}

	name := uuid.NewString() + ".jpg"
	if err = os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("store receipt: %w", err)
	}
	if progress != nil {
		progress(1)
	}

	zap.L().Debug("receipt stored", zap.String("owner", ownerID), zap.String("file", name))
	return s.baseURL + "/" + receiptsDir + "/" + ownerID + "/" + name, nil
}
