package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/msgchain/internal/wire"
)

// BodyFileName is the file a Dir fetcher reads for a request.
func BodyFileName(res Resource, resID string) string {
	return string(res) + "_" + resID + ".bin"
}

// Dir serves bodies stored as wire batch files under one directory.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) Fetch(ctx context.Context, req Request) ([]wire.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.ContainsAny(req.ResID, `/\`) || strings.Contains(req.ResID, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResID, req.ResID)
	}
	data, err := os.ReadFile(filepath.Join(d.root, BodyFileName(req.Resource, req.ResID)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, req.Resource, req.ResID)
	}
	if err != nil {
		return nil, err
	}
	return wire.DecodeMessages(data)
}

// WithTimeout bounds every call to next. A non-positive d returns next.
func WithTimeout(next Fetcher, d time.Duration) Fetcher {
	if d <= 0 {
		return next
	}
	return FetcherFunc(func(ctx context.Context, req Request) ([]wire.Message, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Fetch(ctx, req)
	})
}
