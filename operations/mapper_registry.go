package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/alekLukanen/columnmap/elements"
)

type IMapperRegistry interface {
	AddMappers(mappers ...elements.IColumnMapper) error
	GetMapper(name string) (elements.IColumnMapper, error)
	MapperExists(name string) bool
	Mappers() []elements.IColumnMapper
}

type MapperRegistry struct {
	logger *slog.Logger

	mappers map[string]elements.IColumnMapper
}

func NewMapperRegistry(ctx context.Context, logger *slog.Logger) *MapperRegistry {
	return &MapperRegistry{
		logger:  logger,
		mappers: make(map[string]elements.IColumnMapper),
	}
}

func (obj *MapperRegistry) AddMappers(mappers ...elements.IColumnMapper) error {
	for _, mapper := range mappers {
		if _, exists := obj.mappers[mapper.Name()]; exists {
			return fmt.Errorf("%w| mapper %s", ErrMapperAlreadyAddedToRegistry, mapper.Name())
		}
		obj.mappers[mapper.Name()] = mapper
		obj.logger.Debug("registered mapper", slog.String("mapper", mapper.Name()))
	}
	return nil
}

func (obj *MapperRegistry) GetMapper(name string) (elements.IColumnMapper, error) {
	mapper, exists := obj.mappers[name]
	if !exists {
		return nil, fmt.Errorf("%w| mapper %s", ErrMapperNotFound, name)
	}
	return mapper, nil
}

func (obj *MapperRegistry) MapperExists(name string) bool {
	_, exists := obj.mappers[name]
	return exists
}

// Mappers are returned sorted by name.
func (obj *MapperRegistry) Mappers() []elements.IColumnMapper {
	mappers := make([]elements.IColumnMapper, 0, len(obj.mappers))
	for _, mapper := range obj.mappers {
		mappers = append(mappers, mapper)
	}
	sort.Slice(mappers, func(i, j int) bool {
		return mappers[i].Name() < mappers[j].Name()
	})
	return mappers
}
