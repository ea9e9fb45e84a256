package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"transcribr/internal/logging"
	"transcribr/internal/services"
)

// Manager rebuilds the bundle for one output directory.
type Manager struct {
	outputDir  string
	bundlePath string
	skip       map[string]struct{}
	logger     *slog.Logger
}

// NewManager returns a Manager that bundles outputDir into bundlePath. Files in
// outputDir named in skip are never bundled.
func NewManager(outputDir, bundlePath string, logger *slog.Logger, skip ...string) *Manager {
	skipped := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipped[filepath.Base(name)] = struct{}{}
	}
	return &Manager{
		outputDir:  outputDir,
		bundlePath: bundlePath,
		skip:       skipped,
		logger:     logging.NewComponentLogger(logger, "archive"),
	}
}

// BundlePath returns the location of the bundle.
func (m *Manager) BundlePath() string {
	return m.bundlePath
}

// Rebuild replaces the bundle with a snapshot of the output directory and
// returns the bundle path.
func (m *Manager) Rebuild(ctx context.Context) (string, error) {
	names, err := m.members()
	if err != nil {
		return "", services.Wrap(services.ErrPersist, "archive", "list output", m.outputDir, err)
	}

	if err := os.MkdirAll(filepath.Dir(m.bundlePath), 0o755); err != nil {
		return "", services.Wrap(services.ErrPersist, "archive", "ensure bundle dir", "", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(m.bundlePath), "."+filepath.Base(m.bundlePath)+".*.tmp")
	if err != nil {
		return "", services.Wrap(services.ErrPersist, "archive", "create temp bundle", "", err)
	}
	tmpName := tmp.Name()
	fail := func(op string, cause error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", services.Wrap(services.ErrPersist, "archive", op, filepath.Base(m.bundlePath), cause)
	}

	zw := zip.NewWriter(tmp)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return fail("cancelled", err)
		}
		if err := addFile(zw, filepath.Join(m.outputDir, name), name); err != nil {
			return fail("add "+name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fail("finalize", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", services.Wrap(services.ErrPersist, "archive", "close", filepath.Base(m.bundlePath), err)
	}
	if err := os.Rename(tmpName, m.bundlePath); err != nil {
		_ = os.Remove(tmpName)
		return "", services.Wrap(services.ErrPersist, "archive", "replace bundle", filepath.Base(m.bundlePath), err)
	}

	logging.WithContext(ctx, m.logger).Debug("bundle rebuilt",
		logging.String("path", m.bundlePath),
		logging.Int("files", len(names)),
	)
	return m.bundlePath, nil
}

// Contents lists the entry names of the current bundle.
func (m *Manager) Contents(_ context.Context) ([]string, error) {
	reader, err := zip.OpenReader(m.bundlePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "archive", "open bundle", m.bundlePath, err)
		}
		return nil, services.Wrap(services.ErrPersist, "archive", "open bundle", m.bundlePath, err)
	}
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	return names, nil
}

// members returns the sorted names of files to bundle.
func (m *Manager) members() ([]string, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, err
	}
	bundleAbs, _ := filepath.Abs(m.bundlePath)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if _, skipped := m.skip[name]; skipped {
			continue
		}
		if isTempFile(name) {
			continue
		}
		if abs, err := filepath.Abs(filepath.Join(m.outputDir, name)); err == nil && abs == bundleAbs {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
}

func addFile(zw *zip.Writer, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header: %w", err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, file)
	return err
}
