package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "vanbiz/internal/errors"
)

// DatasetExtensions lists the raw dataset formats the pipeline reads.
var DatasetExtensions = []string{".csv", ".xlsx"}

// FileValidator checks input datasets and output locations before a run, so
// a bad path fails fast instead of halfway through the pipeline.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateOutputDirectory creates dir if needed and checks it is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	v.logger.Debug("output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateFile checks that path is an existing, readable regular file.
func (v *FileValidator) ValidateFile(path string) error {
	_, err := v.checkFile(path)
	return err
}

// checkFile is ValidateFile returning the stat result for further checks.
func (v *FileValidator) checkFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("file does not exist", slog.String("file", path))
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("path is a directory, not a file", slog.String("path", path))
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return info, nil
}

// ValidateDataset checks a raw dataset path: readable, a supported format,
// not an Excel lock file and not empty.
func (v *FileValidator) ValidateDataset(path string) error {
	info, err := v.checkFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range DatasetExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		v.logger.Error("unsupported dataset format",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(fmt.Sprintf(
			"file %s is not a supported dataset (want one of %s)", path, strings.Join(DatasetExtensions, ", ")))
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewAppValidationError(fmt.Sprintf("file %s is a temporary Excel file", path))
	}

	if info.Size() == 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("file %s is empty", path))
	}
	return nil
}

// ValidateDatasets validates every path and reports the first failure.
func (v *FileValidator) ValidateDatasets(paths ...string) error {
	for _, p := range paths {
		if err := v.ValidateDataset(p); err != nil {
			return err
		}
	}
	return nil
}
