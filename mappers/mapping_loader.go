package mappers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alekLukanen/errs"
	"gopkg.in/yaml.v3"
)

type MappingFormat string

const (
	MappingFormatJSON MappingFormat = "json"
	MappingFormatYAML MappingFormat = "yaml"
)

type IMappingSource interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// MappingFormatFromKey picks the format from a file name or object key.
func MappingFormatFromKey(key string) (MappingFormat, error) {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".json":
		return MappingFormatJSON, nil
	case ".yaml", ".yml":
		return MappingFormatYAML, nil
	default:
		return "", fmt.Errorf("%w| %s", ErrUnknownMappingFormat, key)
	}
}

/*
* ParseMapping decodes a flat object of string keys to string values.
* Nested objects and non string values are rejected.
 */
func ParseMapping(data []byte, format MappingFormat) (map[string]string, error) {
	mapping := make(map[string]string)

	var err error
	switch format {
	case MappingFormatJSON:
		err = json.Unmarshal(data, &mapping)
	case MappingFormatYAML:
		err = yaml.Unmarshal(data, &mapping)
	default:
		return nil, fmt.Errorf("%w| %s", ErrUnknownMappingFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w| %s mapping: %v", ErrValidation, format, err)
	}
	return mapping, nil
}

func LoadMappingFile(path string) (map[string]string, error) {
	format, err := MappingFormatFromKey(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	return ParseMapping(data, format)
}

func LoadMappingFromObjectStorage(ctx context.Context, source IMappingSource, bucket, key string) (map[string]string, error) {
	format, err := MappingFormatFromKey(key)
	if err != nil {
		return nil, err
	}
	data, err := source.Download(ctx, bucket, key)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return ParseMapping(data, format)
}
