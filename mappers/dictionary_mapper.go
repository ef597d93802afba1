package mappers

import (
	"context"
	"log/slog"
	"maps"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// DictionaryMapper replaces each non-null value found in its mapping. The
// mapping is copied on construction and never written again, so one
// mapper can serve any number of chunks concurrently.
type DictionaryMapper struct {
	logger *slog.Logger

	name    string
	lookup  map[string]string
	options DictionaryMapOptions
}

func NewDictionaryMapper(
	logger *slog.Logger,
	name string,
	mapping map[string]string,
	options DictionaryMapOptions,
) (*DictionaryMapper, error) {
	if err := options.Validate(); err != nil {
		return nil, errs.Wrap(err)
	}

	lookup := make(map[string]string, len(mapping))
	maps.Copy(lookup, mapping)

	return &DictionaryMapper{
		logger:  logger,
		name:    name,
		lookup:  lookup,
		options: options,
	}, nil
}

func (obj *DictionaryMapper) Name() string {
	return obj.name
}

func (obj *DictionaryMapper) OutputType() arrow.DataType {
	return arrow.BinaryTypes.String
}

func (obj *DictionaryMapper) Size() int {
	return len(obj.lookup)
}

func (obj *DictionaryMapper) Apply(ctx context.Context, mem memory.Allocator, column *array.String) (*array.String, error) {
	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(column.Len())

	var misses int
	for i := 0; i < column.Len(); i++ {
		if column.IsNull(i) {
			b.AppendNull()
			continue
		}

		value := column.Value(i)
		if mapped, ok := obj.lookup[value]; ok {
			b.Append(mapped)
			continue
		}

		misses++
		switch obj.options.OnMissing {
		case MissingKeyNull:
			b.AppendNull()
		case MissingKeyFail:
			return nil, newMapError(ErrLookupMiss, obj.name, i, &value, "key not in mapping", nil)
		default:
			b.Append(value)
		}
	}

	obj.logger.Debug(
		"dictionary mapped chunk",
		slog.String("mapper", obj.name),
		slog.Int("rows", column.Len()),
		slog.Int("misses", misses),
	)

	return b.NewStringArray(), nil
}
