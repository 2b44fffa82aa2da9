// Package backup produces timestamped compressed database snapshots and
// applies age-based retention.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	prefix    = "db_backup_"
	timestamp = "20060102_150405"
	sqlSuffix = ".sql"
	gzSuffix  = ".sql.gz"
)

// Dumper is the database collaborator's dump-to-stream primitive.
type Dumper interface {
	Dump(ctx context.Context, w io.Writer) error
}

// Service owns the backup directory: it only appends fresh artifacts and
// prunes expired ones.
type Service struct {
	dir       string
	retention time.Duration
	dumper    Dumper
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a backup service with the given retention window.
func New(dir string, retention time.Duration, dumper Dumper, logger *slog.Logger) Service {
	return Service{
		dir:       dir,
		retention: retention,
		dumper:    dumper,
		logger:    logger,
		now:       time.Now,
	}
}

// Backup dumps, compresses, then prunes, in that order: a prune failure can
// never discard an uncompressed fresh dump, and a failed dump aborts before
// compression runs over nothing. Returns the compressed artifact path.
// Artifacts are named by UTC second; two backups within the same second
// overwrite each other, an accepted limitation.
func (s Service) Backup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := prefix + s.now().UTC().Format(timestamp) + sqlSuffix
	raw := filepath.Join(s.dir, name)

	if err := s.dump(ctx, raw); err != nil {
		// A failed dump is fatal; do not leave a truncated artifact behind.
		os.Remove(raw)
		return "", err
	}

	compressed, err := s.compress(raw)
	if err != nil {
		return "", err
	}
	s.logger.Info("backup created", "artifact", compressed)

	s.prune()
	return compressed, nil
}

func (s Service) dump(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump file: %w", err)
	}
	if err := s.dumper.Dump(ctx, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close dump file: %w", err)
	}
	return nil
}

// compress gzips the dump in place and removes the raw file.
func (s Service) compress(raw string) (string, error) {
	src, err := os.Open(raw)
	if err != nil {
		return "", fmt.Errorf("open dump: %w", err)
	}
	defer src.Close()

	target := strings.TrimSuffix(raw, sqlSuffix) + gzSuffix
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		dst.Close()
		return "", fmt.Errorf("compress dump: %w", err)
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}
	if err := os.Remove(raw); err != nil {
		return "", fmt.Errorf("remove raw dump: %w", err)
	}
	return target, nil
}

// prune deletes artifacts strictly older than the retention window. Pruning
// is best-effort; failures are logged and never fail the backup.
func (s Service) prune() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("backup prune skipped", "error", err)
		return
	}
	cutoff := s.now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) || !strings.HasSuffix(entry.Name(), gzSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("backup prune stat failed", "name", entry.Name(), "error", err)
			continue
		}
		if cutoff.Sub(info.ModTime()) <= s.retention {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("backup prune failed", "artifact", path, "error", err)
			continue
		}
		s.logger.Info("expired backup pruned", "artifact", path)
	}
}
