package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekLukanen/columnmap/elements"
	"github.com/alekLukanen/columnmap/mappers"
)

func TestMapperRegistry(t *testing.T) {
	registry := NewMapperRegistry(context.Background(), testLogger())

	b, err := mappers.NewDictionaryMapper(testLogger(), "b", map[string]string{}, mappers.DictionaryMapOptions{})
	require.NoError(t, err)
	a, err := mappers.NewDictionaryMapper(testLogger(), "a", map[string]string{}, mappers.DictionaryMapOptions{})
	require.NoError(t, err)

	require.NoError(t, registry.AddMappers(b, a))
	assert.True(t, registry.MapperExists("a"))
	assert.False(t, registry.MapperExists("c"))

	found, err := registry.GetMapper("b")
	require.NoError(t, err)
	assert.Equal(t, elements.IColumnMapper(b), found)

	_, err = registry.GetMapper("c")
	assert.ErrorIs(t, err, ErrMapperNotFound)

	err = registry.AddMappers(a)
	assert.ErrorIs(t, err, ErrMapperAlreadyAddedToRegistry)

	names := make([]string, 0)
	for _, m := range registry.Mappers() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"a", "b"}, names)
}
