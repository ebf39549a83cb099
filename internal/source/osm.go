package source

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

// Input formats
const (
	FormatAuto = "auto"
	FormatPBF  = "pbf"
	FormatXML  = "xml"
)

// ErrUnknownFormat reports an input whose format is neither given nor
// recognisable from its name
var ErrUnknownFormat = errors.New("unknown input format")

// Options controls how a file is opened
type Options struct {
	Format   string
	Workers  int
	Progress bool
}

// DetectFormat guesses the input format from the file name
func DetectFormat(path string) (string, error) {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	switch filepath.Ext(name) {
	case ".pbf":
		return FormatPBF, nil
	case ".osm", ".xml":
		return FormatXML, nil
	}
	return "", fmt.Errorf("%w: cannot detect format of %s", ErrUnknownFormat, path)
}

// Open opens an OSM PBF or XML file. XML may be gzip-compressed.
// Errors returned here are ErrUnknownFormat or I/O errors; decoding errors
// surface through Err.
func Open(ctx context.Context, path string, opts Options) (Source, error) {
	format := opts.Format
	if format == "" || format == FormatAuto {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	if format != FormatPBF && format != FormatXML {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	var rc io.ReadCloser = f
	if opts.Progress {
		if rc, err = withProgress(f); err != nil {
			f.Close()
			return nil, err
		}
	}

	closers := []io.Closer{rc}
	var scanner osm.Scanner
	switch format {
	case FormatPBF:
		workers := opts.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		s := osmpbf.New(ctx, rc, workers)
		s.SkipRelations = true
		scanner = s
	case FormatXML:
		var r io.Reader = rc
		if strings.HasSuffix(strings.ToLower(path), ".gz") {
			gz, err := gzip.NewReader(rc)
			if err != nil {
				rc.Close()
				return nil, fmt.Errorf("failed to open gzip stream: %w", err)
			}
			closers = append(closers, gz)
			r = gz
		}
		scanner = osmxml.New(ctx, r)
	}

	return &osmSource{scanner: scanner, closers: closers}, nil
}

// osmSource adapts a paulmach/osm scanner, dropping relations and changesets
type osmSource struct {
	scanner osm.Scanner
	closers []io.Closer
	cur     Element
}

func (s *osmSource) Scan() bool {
	for s.scanner.Scan() {
		switch obj := s.scanner.Object().(type) {
		case *osm.Node:
			s.cur = Element{Point: &Point{
				ID:   int64(obj.ID),
				Lon:  obj.Lon,
				Lat:  obj.Lat,
				Tags: tagMap(obj.Tags),
			}}
			return true
		case *osm.Way:
			refs := make([]int64, len(obj.Nodes))
			for i, wn := range obj.Nodes {
				refs[i] = int64(wn.ID)
			}
			s.cur = Element{Way: &Way{
				ID:   int64(obj.ID),
				Refs: refs,
				Tags: tagMap(obj.Tags),
			}}
			return true
		}
	}
	return false
}

func (s *osmSource) Element() Element { return s.cur }

func (s *osmSource) Err() error {
	if err := s.scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (s *osmSource) Close() error {
	firstErr := s.scanner.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func tagMap(tags osm.Tags) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	return tags.Map()
}
