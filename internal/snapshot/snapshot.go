package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/wegman-software/osmgraph-go/internal/render"
)

// File names inside a snapshot directory
const (
	VerticesFile = "vertices.parquet"
	IndicesFile  = "indices.parquet"
)

// Save writes b to dir, creating it if needed
func Save(dir string, b *render.Buffers) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := saveVertices(filepath.Join(dir, VerticesFile), b.Vertices); err != nil {
		return fmt.Errorf("failed to write vertices: %w", err)
	}
	if err := saveIndices(filepath.Join(dir, IndicesFile), b.Indices); err != nil {
		return fmt.Errorf("failed to write indices: %w", err)
	}
	return nil
}

func saveVertices(path string, vertices []render.Vertex) error {
	w, err := newBatchWriter(path, vertexSchema, defaultBatchSize)
	if err != nil {
		return err
	}
	xs := w.builder.Field(0).(*array.Float32Builder)
	ys := w.builder.Field(1).(*array.Float32Builder)
	for _, v := range vertices {
		xs.Append(v.X)
		ys.Append(v.Y)
		if err := w.rowAdded(); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func saveIndices(path string, indices []uint32) error {
	w, err := newBatchWriter(path, indexSchema, defaultBatchSize)
	if err != nil {
		return err
	}
	idx := w.builder.Field(0).(*array.Uint32Builder)
	for _, i := range indices {
		idx.Append(i)
		if err := w.rowAdded(); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// Load reads buffers written by Save
func Load(dir string) (*render.Buffers, error) {
	ctx := context.Background()

	vt, err := readTable(ctx, filepath.Join(dir, VerticesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read vertices: %w", err)
	}
	defer vt.Release()

	it, err := readTable(ctx, filepath.Join(dir, IndicesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read indices: %w", err)
	}
	defer it.Release()

	b := &render.Buffers{
		Vertices: make([]render.Vertex, 0, vt.NumRows()),
		Indices:  make([]uint32, 0, it.NumRows()),
	}

	xs, ys := vt.Column(0).Data().Chunks(), vt.Column(1).Data().Chunks()
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("vertex columns are misaligned")
	}
	for c := range xs {
		x, okX := xs[c].(*array.Float32)
		y, okY := ys[c].(*array.Float32)
		if !okX || !okY || x.Len() != y.Len() {
			return nil, fmt.Errorf("unexpected vertex column types %s, %s", xs[c].DataType(), ys[c].DataType())
		}
		for i := 0; i < x.Len(); i++ {
			b.Vertices = append(b.Vertices, render.Vertex{X: x.Value(i), Y: y.Value(i)})
		}
	}

	for _, chunk := range it.Column(0).Data().Chunks() {
		col, ok := chunk.(*array.Uint32)
		if !ok {
			return nil, fmt.Errorf("unexpected index column type %s", chunk.DataType())
		}
		b.Indices = append(b.Indices, col.Uint32Values()...)
	}

	if err := checkIndices(b); err != nil {
		return nil, err
	}
	return b, nil
}

// checkIndices rejects index buffers that reference missing vertices, as
// happens when the two files come from different builds
func checkIndices(b *render.Buffers) error {
	n := len(b.Vertices)
	for pos, idx := range b.Indices {
		if idx != render.RestartIndex && int64(idx) >= int64(n) {
			return fmt.Errorf("index %d at position %d exceeds %d vertices", idx, pos, n)
		}
	}
	return nil
}

func readTable(ctx context.Context, path string) (arrow.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
}
