package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"transcribr/internal/captions"
	"transcribr/internal/logging"
	"transcribr/internal/services"
)

// DateLayout renders entry dates independently of the process locale.
const DateLayout = time.ANSIC

// Entry is one previously converted media file.
type Entry struct {
	Name    string
	Path    string
	ModTime time.Time
	// Date is ModTime in local time formatted with DateLayout.
	Date      string
	SizeBytes int64
	// Duration is zero and DurationKnown false when probing failed.
	Duration        time.Duration
	DurationKnown   bool
	DisplayDuration string
	HasCaptions     bool
}

// Index lists history entries and resolves one to caption text.
type Index interface {
	List(ctx context.Context) ([]Entry, error)
	Resolve(ctx context.Context, name string) (string, error)
}

// DurationProber reports the playback length of a media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FSIndex is an Index over the output directory.
type FSIndex struct {
	outputDir string
	audioExt  string
	prober    DurationProber
	cache     *ProbeCache
	logger    *slog.Logger
}

// NewFSIndex returns an index of audioExt files (e.g. ".mp3") in outputDir.
// cache may be nil.
func NewFSIndex(outputDir, audioExt string, prober DurationProber, cache *ProbeCache, logger *slog.Logger) *FSIndex {
	if audioExt != "" && !strings.HasPrefix(audioExt, ".") {
		audioExt = "." + audioExt
	}
	return &FSIndex{
		outputDir: outputDir,
		audioExt:  strings.ToLower(audioExt),
		prober:    prober,
		cache:     cache,
		logger:    logging.NewComponentLogger(logger, "history"),
	}
}

var _ Index = (*FSIndex)(nil)

// List returns the entries newest first, ties broken by name.
func (x *FSIndex) List(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(x.outputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrPersist, "history", "read output dir", x.outputDir, err)
	}

	names := make(map[string]struct{}, len(dirEntries))
	for _, de := range dirEntries {
		names[de.Name()] = struct{}{}
	}

	logger := logging.WithContext(ctx, x.logger)
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || strings.ToLower(filepath.Ext(de.Name())) != x.audioExt {
			continue
		}
		info, err := de.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, services.Wrap(services.ErrPersist, "history", "stat", de.Name(), err)
		}
		path := filepath.Join(x.outputDir, de.Name())
		entry := Entry{
			Name:      de.Name(),
			Path:      path,
			ModTime:   info.ModTime(),
			Date:      info.ModTime().Local().Format(DateLayout),
			SizeBytes: info.Size(),
		}
		_, entry.HasCaptions = names[captionName(de.Name())]

		duration, err := x.duration(ctx, path, info)
		if err != nil {
			logging.WarnWithContext(logger, "duration probe failed", "probe_failed",
				logging.String("file", de.Name()),
				logging.Error(err),
			)
			entry.DisplayDuration = "--:--"
		} else {
			entry.Duration = duration
			entry.DurationKnown = true
			entry.DisplayDuration = FormatDuration(duration)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return entries[i].Name < entries[j].Name
	})

	if x.cache != nil {
		keep := make([]string, 0, len(entries))
		for _, e := range entries {
			keep = append(keep, e.Path)
		}
		if removed, err := x.cache.Prune(ctx, keep); err != nil {
			logger.Debug("probe cache prune failed", logging.Error(err))
		} else if removed > 0 {
			logger.Debug("probe cache pruned", logging.Int64("rows", removed))
		}
	}
	return entries, nil
}

// Resolve returns the caption text for the entry called name. Only the base
// name is used; its extension is replaced by the caption extension.
func (x *FSIndex) Resolve(_ context.Context, name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", services.Wrap(services.ErrInvalidInput, "history", "resolve", "entry name required", nil)
	}
	path := filepath.Join(x.outputDir, captionName(base))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "history", "resolve", fmt.Sprintf("no captions for %s", base), err)
		}
		return "", services.Wrap(services.ErrPersist, "history", "read captions", filepath.Base(path), err)
	}
	return string(data), nil
}

// CaptionPath returns where the caption file for name lives.
func (x *FSIndex) CaptionPath(name string) string {
	return filepath.Join(x.outputDir, captionName(filepath.Base(name)))
}

func (x *FSIndex) duration(ctx context.Context, path string, info os.FileInfo) (time.Duration, error) {
	if x.cache != nil {
		if d, ok, err := x.cache.Lookup(ctx, path, info.Size(), info.ModTime()); err == nil && ok {
			return d, nil
		} else if err != nil {
			x.logger.Debug("probe cache lookup failed", logging.Error(err))
		}
	}
	if x.prober == nil {
		return 0, errors.New("no duration prober configured")
	}
	d, err := x.prober.Duration(ctx, path)
	if err != nil {
		return 0, err
	}
	if x.cache != nil {
		if err := x.cache.Store(ctx, path, info.Size(), info.ModTime(), d); err != nil {
			x.logger.Debug("probe cache store failed", logging.Error(err))
		}
	}
	return d, nil
}

func captionName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + captions.Extension
}

// FormatDuration renders d as HH:MM:SS when it spans at least an hour and
// MM:SS otherwise. Hours wrap at 24, fractional seconds are truncated.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := (total / 3600) % 24
	minutes := (total / 60) % 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
