package arrowops

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

/*
* Returns the valid values of the array in index order along with the
* position each value was taken from. Null slots are skipped.
 */
func GatherValidStrings(arr *array.String) ([]*string, []int) {
	validCount := arr.Len() - arr.NullN()
	values := make([]*string, 0, validCount)
	positions := make([]int, 0, validCount)
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		value := arr.Value(i)
		values = append(values, &value)
		positions = append(positions, i)
	}
	return values, positions
}

/*
* Builds a string array of the given length where positions[k] holds
* values[k]. Every slot not listed in positions is null, as is any nil value.
 */
func ScatterStrings(mem memory.Allocator, length int, positions []int, values []*string) (*array.String, error) {
	if len(positions) != len(values) {
		return nil, fmt.Errorf(
			"%w| %d positions but %d values", ErrLengthMismatch, len(positions), len(values),
		)
	}

	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(length)

	next := 0
	for i := 0; i < length; i++ {
		if next < len(positions) && positions[next] == i {
			if values[next] == nil {
				b.AppendNull()
			} else {
				b.Append(*values[next])
			}
			next++
			continue
		}
		b.AppendNull()
	}
	if next != len(positions) {
		return nil, fmt.Errorf(
			"%w| positions must be ascending and below %d", ErrLengthMismatch, length,
		)
	}
	return b.NewStringArray(), nil
}

// NewNullableStringArray builds a string array from optional values.
func NewNullableStringArray(mem memory.Allocator, values []*string) *array.String {
	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(len(values))
	for _, v := range values {
		if v == nil {
			b.AppendNull()
		} else {
			b.Append(*v)
		}
	}
	return b.NewStringArray()
}

// StringValues copies the array into optional values, nil for null slots.
func StringValues(arr *array.String) []*string {
	values := make([]*string, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		value := arr.Value(i)
		values[i] = &value
	}
	return values
}
