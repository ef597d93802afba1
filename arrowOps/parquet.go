package arrowops

import (
	"context"
	"os"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
)

const defaultParquetChunkSize = 64 * 1024

func WriteTableToParquetFile(ctx context.Context, tbl arrow.Table, filePath string) error {

	file, err := os.Create(filePath)
	if err != nil {
		return errs.NewStackError(err)
	}
	defer file.Close()

	parquetWriteProps := parquet.NewWriterProperties(parquet.WithStats(true))
	arrowWriteProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	err = pqarrow.WriteTable(tbl, file, defaultParquetChunkSize, parquetWriteProps, arrowWriteProps)
	if err != nil {
		return errs.Wrap(err)
	}
	return nil
}

// ReadParquetFileAsTable reads the whole file. Each row group becomes at
// least one chunk of the resulting columns.
func ReadParquetFileAsTable(ctx context.Context, mem memory.Allocator, filePath string) (arrow.Table, error) {

	file, err := os.Open(filePath)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	defer file.Close()

	parquetReadProps := pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: 1 << 20, // 1MB
	}
	tbl, err := pqarrow.ReadTable(ctx, file, parquet.NewReaderProperties(mem), parquetReadProps, mem)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return tbl, nil
}
