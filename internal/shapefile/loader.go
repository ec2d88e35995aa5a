// Package shapefile turns an uploaded file set into a geometry table.
// Uploads arrive either as one zip archive or as loose .shp/.shx/.dbf/.prj
// siblings; both are materialized into a per-load scratch directory so the
// .shp can find its neighbors by base name.
package shapefile

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"shapeview/internal/observability"
	"shapeview/internal/repair"
	"shapeview/internal/table"
)

// UploadFile is one (name, temporary-storage-path) pair as handed over by
// the upload surface.
type UploadFile struct {
	Name string
	Path string
}

type Loader struct {
	ScratchBase string
	Repairer    *repair.Repairer
	Log         *slog.Logger
}

// Result of one load operation. Table == nil means "table absent"; Message
// is always user-displayable.
type Result struct {
	Table   *table.FeatureTable
	Message string
}

// Load runs the full intake sequence: scratch dir, assembly, .shp
// discovery, parse, repair, validity report. Failures never escape; they
// come back as a Result with an absent table.
func (l *Loader) Load(ctx context.Context, files []UploadFile) (res Result) {
	if len(files) == 0 {
		return Result{Message: "no files uploaded"}
	}

	start := time.Now()
	outcome := "error"
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Message: fmt.Sprintf("error loading shapefile: %v\n%s", rec, debug.Stack())}
			outcome = "error"
		}
		observability.ObserveLoad(outcome, time.Since(start).Seconds(), res.Table.Len())
	}()

	scratch, err := os.MkdirTemp(l.ScratchBase, "shapeview-*")
	if err != nil {
		return Result{Message: fmt.Sprintf("error loading shapefile: create scratch dir: %v", err)}
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			l.Log.WarnContext(ctx, "scratch dir cleanup failed", "dir", scratch, "err", rmErr)
		}
	}()

	if err := assemble(scratch, files); err != nil {
		return Result{Message: fmt.Sprintf("error loading shapefile: %v", err)}
	}

	shpPath := findShapefile(scratch)
	if shpPath == "" {
		outcome = "no_shp"
		return Result{Message: "no .shp file found in the uploaded files"}
	}

	tbl, err := readShapefile(shpPath)
	if err != nil {
		return Result{Message: fmt.Sprintf("error loading shapefile: %v", err)}
	}

	report := l.Repairer.RepairTable(tbl)
	if n := len(report.Invalid); n > 0 {
		outcome = "invalid_geoms"
		reasons := make([]string, 0, n)
		for _, inv := range report.Invalid {
			reasons = append(reasons, fmt.Sprintf("row %d: %s", inv.Row, inv.Reason))
		}
		l.Log.WarnContext(ctx, "invalid geometries after repair", "count", n)
		return Result{
			Table:   tbl,
			Message: fmt.Sprintf("shapefile loaded with %d invalid geometries: %s", n, strings.Join(reasons, "; ")),
		}
	}

	outcome = "ok"
	l.Log.InfoContext(ctx, "shapefile loaded", "file", filepath.Base(shpPath), "features", tbl.Len())
	return Result{
		Table:   tbl,
		Message: fmt.Sprintf("shapefile loaded successfully and all geometries are valid: %s (%d features)", filepath.Base(shpPath), tbl.Len()),
	}
}

// assemble materializes the upload into the scratch dir: a single zip is
// expanded, anything else is copied under its original name.
func assemble(scratch string, files []UploadFile) error {
	if len(files) == 1 && strings.EqualFold(filepath.Ext(files[0].Name), ".zip") {
		if err := expandZip(files[0].Path, scratch); err != nil {
			return fmt.Errorf("expand %s: %w", files[0].Name, err)
		}
		return nil
	}
	for _, f := range files {
		name := filepath.Base(f.Name)
		if name == "" || name == "." || name == string(filepath.Separator) {
			return fmt.Errorf("unusable upload name %q", f.Name)
		}
		if err := copyFile(f.Path, filepath.Join(scratch, name)); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}
	return nil
}

func expandZip(src, dst string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		name := filepath.Clean(f.Name)
		if name == "." || filepath.IsAbs(name) || strings.HasPrefix(name, "..") {
			return fmt.Errorf("archive entry escapes scratch dir: %q", f.Name)
		}
		target := filepath.Join(dst, name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractEntry(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return err
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// findShapefile returns the first *.shp under dir in lexical walk order,
// or "" when none exists.
func findShapefile(dir string) string {
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found != "" {
			return filepath.SkipAll
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".shp") {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
