package admin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"Vitrine/internal/catalog"
)

// Sink is the durable destination for a full replacement catalog.
type Sink interface {
	Write(ctx context.Context, products []catalog.Product) error
}

// FileSink overwrites the products JSON file in place, the same file the
// data source serves. The write is tmp+rename so readers never see a
// half-written catalog.
type FileSink struct {
	Path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

func (s *FileSink) Write(_ context.Context, products []catalog.Product) error {
	b, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".products-*.json")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.Path)
}
