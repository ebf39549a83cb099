// Package snapshot persists render buffers as Parquet files.
package snapshot

import (
	"errors"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
)

// defaultBatchSize is the number of rows buffered per record batch
const defaultBatchSize = 64 * 1024

var (
	vertexSchema = arrow.NewSchema([]arrow.Field{
		{Name: "x", Type: arrow.PrimitiveTypes.Float32, Nullable: false},
		{Name: "y", Type: arrow.PrimitiveTypes.Float32, Nullable: false},
	}, nil)

	indexSchema = arrow.NewSchema([]arrow.Field{
		{Name: "index", Type: arrow.PrimitiveTypes.Uint32, Nullable: false},
	}, nil)
)

// batchWriter appends rows through a record builder and flushes full batches
type batchWriter struct {
	file      *os.File
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	batchSize int
	count     int
}

func newBatchWriter(path string, schema *arrow.Schema, batchSize int) (*batchWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithDictionaryDefault(false),
	)

	writer, err := pqarrow.NewFileWriter(schema, f, writerProps,
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &batchWriter{
		file:      f,
		writer:    writer,
		builder:   array.NewRecordBuilder(memory.DefaultAllocator, schema),
		batchSize: batchSize,
	}, nil
}

// rowAdded counts a row appended to the builder and flushes a full batch
func (w *batchWriter) rowAdded() error {
	w.count++
	if w.count >= w.batchSize {
		return w.flush()
	}
	return nil
}

func (w *batchWriter) flush() error {
	if w.count == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	err := w.writer.Write(rec)
	w.count = 0
	return err
}

// Close flushes remaining rows and closes the file
func (w *batchWriter) Close() error {
	defer w.builder.Release()
	if err := w.flush(); err != nil {
		w.file.Close()
		return err
	}
	err := w.writer.Close()
	// the parquet writer may already have closed the file
	if cerr := w.file.Close(); err == nil && cerr != nil && !errors.Is(cerr, os.ErrClosed) {
		err = cerr
	}
	return err
}
