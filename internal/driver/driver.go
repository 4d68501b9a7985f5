// Package driver runs the compiler phases in order: read, parse, resolve,
// generate, write. A failure in any phase stops the run before anything is
// written.
package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"

	"ccidl/internal/config"
	"ccidl/internal/generation"
	"ccidl/internal/logging"
	"ccidl/internal/resolve"
	"ccidl/internal/source"
	"ccidl/internal/syntax"
	"ccidl/internal/typemap"
)

type Options struct {
	Config config.Config
	Logger *pterm.Logger
}

// Result describes a run. File is set as soon as the input was read so a
// caller can render diagnostics against it.
type Result struct {
	File   *source.File
	Unit   *resolve.Unit
	Output string
	Size   int
}

func (o Options) logger() *pterm.Logger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

func (o Options) mapper() *typemap.Mapper {
	return typemap.NewMapper(o.Config.Runtime, o.Config.PackagePath)
}

// Check reads, parses and resolves path without generating anything.
func Check(path string, opts Options) (*Result, error) {
	file, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	res := &Result{File: file}
	res.Unit, err = analyze(file, opts.mapper(), opts.logger())
	return res, err
}

// Compile runs the whole pipeline and writes the generated file. The output
// is replaced atomically and only after generation succeeded.
func Compile(path string, opts Options) (*Result, error) {
	logger := opts.logger()
	mapper := opts.mapper()

	file, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	res := &Result{File: file}
	res.Unit, err = analyze(file, mapper, logger)
	if err != nil {
		return res, err
	}

	start := time.Now()
	generator := generation.NewGenerator(opts.Config.Package, opts.Config.PackagePath, mapper)
	generator.SourceName = filepath.Base(path)
	generator.RegisterUnit(res.Unit)
	var buf bytes.Buffer
	if err := generator.Render(&buf); err != nil {
		return res, err
	}
	logger.Debug("generated", logger.Args("bytes", buf.Len(), "took", time.Since(start)))

	if err := writeOutput(opts.Config.Output, buf.Bytes()); err != nil {
		return res, err
	}
	res.Output = opts.Config.Output
	res.Size = buf.Len()
	logger.Info("wrote output", logger.Args("path", res.Output, "bytes", res.Size))
	return res, nil
}

// Dump resolves path and writes the resolved unit to w as a msgpack snapshot.
func Dump(path string, w io.Writer, opts Options) (*Result, error) {
	res, err := Check(path, opts)
	if err != nil {
		return res, err
	}
	if err := resolve.EncodeSnapshot(w, path, res.Unit); err != nil {
		return res, fmt.Errorf("encoding snapshot: %w", err)
	}
	return res, nil
}

func analyze(file *source.File, mapper *typemap.Mapper, logger *pterm.Logger) (*resolve.Unit, error) {
	start := time.Now()
	unit, err := syntax.Parse(file)
	if err != nil {
		return nil, err
	}
	logger.Debug("parsed", logger.Args("file", file.Path, "declarations", len(unit.Items), "took", time.Since(start)))

	start = time.Now()
	resolved, err := resolve.Resolve(unit, mapper)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved", logger.Args(
		"interfaces", len(resolved.Interfaces),
		"classes", len(resolved.Classes),
		"took", time.Since(start),
	))
	return resolved, nil
}

// writeOutput creates missing parent directories, then renames a fully
// written temporary file over path.
func writeOutput(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
