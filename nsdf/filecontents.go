package nsdf

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nsdf/nsdf/container"
)

// fileContentsGroup holds embedded copies of model files.
const fileContentsGroup = "/model/filecontents"

// attrASCII marks a stored model file as text.
const attrASCII = "ascii"

type modelFile struct {
	rel  string
	data []byte
}

// AddModelFileContents embeds the given files, and every regular file
// below the given directories, under /model/filecontents at their path
// relative to basedir. Files outside basedir are skipped with a warning.
// With ascii set, files containing NUL bytes are rejected.
func (w *Writer) AddModelFileContents(paths []string, basedir string, ascii bool) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	base, err := filepath.Abs(basedir)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", basedir)
	}

	var files []modelFile
	add := func(p string) error {
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.Wrapf(err, "resolving %s", p)
		}
		rel, err := filepath.Rel(base, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			w.warn(Warning{Path: p, Message: "file is outside " + basedir})
			return nil
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return errors.Wrapf(err, "reading %s", p)
		}
		if ascii && bytes.IndexByte(data, 0) >= 0 {
			return errors.Wrapf(ErrValidation, "%s is not text", p)
		}
		files = append(files, modelFile{rel: filepath.ToSlash(rel), data: data})
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return errors.Wrapf(err, "reading %s", p)
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return errors.Wrapf(err, "walking %s", p)
		}
	}

	return w.atomic(func() error {
		for _, mf := range files {
			dir, name := filepath.Split(filepath.FromSlash(mf.rel))
			g, err := w.f.Root().RequireGroup(fileContentsGroup + "/" + filepath.ToSlash(dir))
			if err != nil {
				return containerErr(err, "creating group for %s", mf.rel)
			}
			ds, err := g.CreateDataset(name, container.Uint8, []uint64{uint64(len(mf.data))},
				w.opts.datasetOptions(container.WithAttribute(attrASCII, ascii))...)
			if err != nil {
				return containerErr(err, "storing %s", mf.rel)
			}
			if err := ds.WriteBytes(0, mf.data); err != nil {
				return containerErr(err, "storing %s", mf.rel)
			}
			w.logger.Debug("stored model file", zap.String("path", ds.Path()), zap.Int("bytes", len(mf.data)))
		}
		return nil
	})
}
