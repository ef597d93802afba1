package arrowops

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// RecordsEqual compares the named columns of both records, or every column
// when no names are given. Columns are matched by name so their order in
// the two schemas does not matter.
func RecordsEqual(rec1, rec2 arrow.Record, fields ...string) bool {
	if rec1.NumRows() != rec2.NumRows() {
		return false
	}
	if len(fields) == 0 {
		if rec1.NumCols() != rec2.NumCols() {
			return false
		}
		for _, field := range rec1.Schema().Fields() {
			fields = append(fields, field.Name)
		}
	}
	for _, columnName := range fields {
		idxs1 := rec1.Schema().FieldIndices(columnName)
		idxs2 := rec2.Schema().FieldIndices(columnName)
		if len(idxs1) != 1 || len(idxs2) != 1 {
			return false
		}
		if !array.Equal(rec1.Column(idxs1[0]), rec2.Column(idxs2[0])) {
			return false
		}
	}
	return true
}

// ChunkedEqual compares two chunked columns by value, ignoring how the
// values are split into chunks.
func ChunkedEqual(col1, col2 *arrow.Chunked) bool {
	if col1.Len() != col2.Len() || !arrow.TypeEqual(col1.DataType(), col2.DataType()) {
		return false
	}
	return array.ChunkedEqual(col1, col2)
}
