package loader

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// LoadFile reads and normalizes a CSV sheet from disk.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	raw, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg.logger.Debug("sheet read",
		zap.String("path", path),
		zap.Int("rows", len(raw.Rows)),
		zap.Int("columns", len(raw.Headers)),
	)

	ds, err := Normalize(raw, opts...)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}
	ds.Source = path
	return ds, nil
}
