package arrowops

import (
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func buildStringRecord(mem memory.Allocator, names []string, columns ...[]*string) arrow.Record {
	fields := make([]arrow.Field, len(names))
	cols := make([]arrow.Array, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
		cols[i] = NewNullableStringArray(mem, columns[i])
	}
	rec := array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(cols[0].Len()))
	for _, col := range cols {
		col.Release()
	}
	return rec
}

func TestRecordsEqual(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := []*string{strPtr("a1"), nil}
	b := []*string{strPtr("b1"), strPtr("b2")}

	testCases := []struct {
		caseName string
		bldRec1  func(mem memory.Allocator) arrow.Record
		bldRec2  func(mem memory.Allocator) arrow.Record
		fields   []string
		expected bool
	}{
		{
			caseName: "same columns",
			bldRec1:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a", "b"}, a, b) },
			bldRec2:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a", "b"}, a, b) },
			expected: true,
		},
		{
			caseName: "columns in a different order",
			bldRec1:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a", "b"}, a, b) },
			bldRec2:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"b", "a"}, b, a) },
			fields:   []string{"a", "b"},
			expected: true,
		},
		{
			caseName: "all columns in a different order",
			bldRec1:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a", "b"}, a, b) },
			bldRec2:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"b", "a"}, b, a) },
			expected: true,
		},
		{
			caseName: "named column missing from the second record",
			bldRec1:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a", "b"}, a, b) },
			bldRec2:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a"}, a) },
			fields:   []string{"b"},
			expected: false,
		},
		{
			caseName: "only the named column is compared",
			bldRec1:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a", "b"}, a, b) },
			bldRec2:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a"}, a) },
			fields:   []string{"a"},
			expected: true,
		},
		{
			caseName: "different values",
			bldRec1:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a"}, a) },
			bldRec2:  func(mem memory.Allocator) arrow.Record { return buildStringRecord(mem, []string{"a"}, b) },
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.caseName, func(t *testing.T) {
			rec1 := tc.bldRec1(mem)
			defer rec1.Release()
			rec2 := tc.bldRec2(mem)
			defer rec2.Release()

			if result := RecordsEqual(rec1, rec2, tc.fields...); result != tc.expected {
				t.Errorf("expected %v but received %v", tc.expected, result)
			}
		})
	}
}
