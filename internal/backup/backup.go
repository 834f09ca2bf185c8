// Package backup writes the recipe document to a file and reads it back.
// Backup files hold exactly what the storage slot holds.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/recipevault/internal/config"
	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/persist"
	"github.com/hpungsan/recipevault/internal/recipe"
	"github.com/hpungsan/recipevault/internal/store"
)

// Source is the read side of the Store used by Export.
type Source interface {
	Recipes() []recipe.Recipe
}

// Target is what Import needs from the Store.
type Target interface {
	Source
	Replace(ctx context.Context, g store.Gate, recipes []recipe.Recipe) error
}

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: ~/.recipevault/exports/recipes-<timestamp>.json
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes the current recipe list to a backup file. The file is
// written under a temporary name and renamed into place, so an existing
// backup survives a failed export.
func Export(ctx context.Context, src Source, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		dir, err := DefaultExportsDir()
		if err != nil {
			return nil, err
		}
		exportPath = filepath.Join(dir, "recipes-"+now.Format("2006-01-02T150405")+Extension)
	}
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	recipes := src.Recipes()
	data, err := persist.Encode(recipes)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("export")
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	tempPath := exportPath + "." + strings.ToLower(ulid.Make().String()) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      len(recipes),
		ExportedAt: now.Unix(),
	}, nil
}

// ImportMode controls how imported recipes combine with the current list.
type ImportMode string

const (
	ImportModeReplace ImportMode = "replace" // swap the whole list
	ImportModeMerge   ImportMode = "merge"   // append recipes whose ids are new
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: replace
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a record that was not imported.
type ImportError struct {
	Index   int    `json:"index"`
	ID      int64  `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import reads a backup file and hands the result to the Store, which
// persists it. The file is decoded with the storage codec, so records
// without isVisible come back visible, and records without images get the
// placeholder the same way a save does. Records that could never have been
// saved (blank title, unknown category, zero id, id repeated in the file)
// are skipped and reported.
func Import(ctx context.Context, dst Target, g store.Gate, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if g == nil || !g.IsOperatorSession() {
		return nil, errors.NewOperatorRequired("import recipes")
	}
	if input.Mode == "" {
		input.Mode = ImportModeReplace
	}
	if input.Mode != ImportModeReplace && input.Mode != ImportModeMerge {
		return nil, errors.NewInvalidRequest("mode must be one of: replace, merge")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := err.(*errors.VaultError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}

	decoded, err := persist.Decode(data)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("import file is not a recipe document: %v", err))
	}

	out := &ImportOutput{Errors: []ImportError{}}
	var next []recipe.Recipe
	existing := make(map[int64]bool)
	if input.Mode == ImportModeMerge {
		next = dst.Recipes()
		for _, r := range next {
			existing[r.ID] = true
		}
	}

	image := ""
	if cfg != nil {
		image = cfg.DefaultImage
	}
	if image == "" {
		image = recipe.DefaultImage
	}

	seen := make(map[int64]bool, len(decoded))
	for i, r := range decoded {
		ierr := checkRecord(i, r, seen)
		if r.ID != 0 {
			seen[r.ID] = true
		}
		if ierr != nil {
			out.Skipped++
			out.Errors = append(out.Errors, *ierr)
			continue
		}
		if existing[r.ID] {
			out.Skipped++
			continue
		}
		r.Images = recipe.CleanImages(r.Images)
		if len(r.Images) == 0 {
			r.Images = []string{image}
		}
		next = append(next, r)
		out.Imported++
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("import")
	}
	if err := dst.Replace(ctx, g, next); err != nil {
		return nil, err
	}
	return out, nil
}

// checkRecord returns nil for an importable record. seen holds the ids of
// earlier records in the same file.
func checkRecord(i int, r recipe.Recipe, seen map[int64]bool) *ImportError {
	switch {
	case r.ID == 0:
		return &ImportError{Index: i, Code: "INVALID_RECORD", Message: "missing id field"}
	case seen[r.ID]:
		return &ImportError{Index: i, ID: r.ID, Code: "DUPLICATE_ID", Message: "id appears more than once"}
	case strings.TrimSpace(r.Title) == "":
		return &ImportError{Index: i, ID: r.ID, Code: "INVALID_RECORD", Message: "title is required"}
	case !r.Category.Valid():
		return &ImportError{Index: i, ID: r.ID, Code: "INVALID_RECORD", Message: fmt.Sprintf("unknown category %q", r.Category)}
	}
	return nil
}
