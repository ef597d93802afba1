package mappers

import (
	"log/slog"
	"os"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	arrowops "github.com/alekLukanen/columnmap/arrowOps"
)

func strPtr(s string) *string {
	return &s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func buildColumn(mem memory.Allocator, values ...*string) *array.String {
	return arrowops.NewNullableStringArray(mem, values)
}
