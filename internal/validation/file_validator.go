package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileValidator runs the filesystem preflight for a batch run. It gives one
// clear error for a bad working tree up front instead of a cascade of
// per-subject failures later.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateDataDirectory checks that the recording directory exists and
// reports how many CSV recordings it holds. An existing directory with no
// recordings is not an error; the batch reports an empty run instead.
func (v *FileValidator) ValidateDataDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Data directory does not exist",
			slog.String("directory", dir))
		return 0, fmt.Errorf("data directory %s does not exist", dir)
	}
	if err != nil {
		v.logger.Error("Failed to stat data directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Data path is not a directory",
			slog.String("path", dir))
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		v.logger.Error("Failed to read data directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			count++
		}
	}

	if count == 0 {
		v.logger.Warn("No recordings found in data directory",
			slog.String("directory", dir))
		return 0, nil
	}

	v.logger.Info("Data directory validated",
		slog.String("directory", dir),
		slog.Int("recordings", count))
	return count, nil
}

// ValidateOutputDirectory ensures the directory exists and is writable
// before the batch spends minutes processing into it. Writability is probed
// with a real file; permission bits alone miss read-only mounts.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Info("Output directory validated",
		slog.String("directory", dir))
	return nil
}
