package arrowops

import (
	"fmt"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

/*
* Returns a new record with the named column set to arr. An existing
* column with the same name is replaced in place, otherwise the column is
* appended. The input record is not modified.
 */
func SetColumn(rec arrow.Record, field arrow.Field, arr arrow.Array) (arrow.Record, error) {
	if int64(arr.Len()) != rec.NumRows() {
		return nil, errs.NewStackError(
			fmt.Errorf("%w| column %s has %d rows but record has %d", ErrLengthMismatch, field.Name, arr.Len(), rec.NumRows()),
		)
	}

	fields := make([]arrow.Field, 0, rec.NumCols()+1)
	cols := make([]arrow.Array, 0, rec.NumCols()+1)
	replaced := false
	for i := 0; i < int(rec.NumCols()); i++ {
		if rec.ColumnName(i) == field.Name && !replaced {
			fields = append(fields, field)
			cols = append(cols, arr)
			replaced = true
			continue
		}
		fields = append(fields, rec.Schema().Field(i))
		cols = append(cols, rec.Column(i))
	}
	if !replaced {
		fields = append(fields, field)
		cols = append(cols, arr)
	}

	metadata := rec.Schema().Metadata()
	return array.NewRecord(arrow.NewSchema(fields, &metadata), cols, rec.NumRows()), nil
}

// SetTableColumn is SetColumn for tables made of chunked columns.
func SetTableColumn(tbl arrow.Table, field arrow.Field, column *arrow.Chunked) (arrow.Table, error) {
	if int64(column.Len()) != tbl.NumRows() {
		return nil, errs.NewStackError(
			fmt.Errorf("%w| column %s has %d rows but table has %d", ErrLengthMismatch, field.Name, column.Len(), tbl.NumRows()),
		)
	}

	newCol := arrow.NewColumn(field, column)
	defer newCol.Release()

	fields := make([]arrow.Field, 0, tbl.NumCols()+1)
	cols := make([]arrow.Column, 0, tbl.NumCols()+1)
	replaced := false
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		if col.Name() == field.Name && !replaced {
			fields = append(fields, field)
			cols = append(cols, *newCol)
			replaced = true
			continue
		}
		fields = append(fields, col.Field())
		cols = append(cols, *col)
	}
	if !replaced {
		fields = append(fields, field)
		cols = append(cols, *newCol)
	}

	metadata := tbl.Schema().Metadata()
	return array.NewTable(arrow.NewSchema(fields, &metadata), cols, tbl.NumRows()), nil
}
