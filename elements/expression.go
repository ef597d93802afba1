package elements

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
)

// ColumnExpression binds a mapper to an input column of a record or table.
// When OutputColumn is empty or equal to InputColumn the input column is
// replaced, otherwise a new column is appended.
type ColumnExpression struct {
	InputColumn  string
	OutputColumn string
	Mapper       IColumnMapper
}

func NewColumnExpression(inputColumn string, mapper IColumnMapper) ColumnExpression {
	return ColumnExpression{
		InputColumn:  inputColumn,
		OutputColumn: inputColumn,
		Mapper:       mapper,
	}
}

func (obj ColumnExpression) As(outputColumn string) ColumnExpression {
	obj.OutputColumn = outputColumn
	return obj
}

func (obj ColumnExpression) OutputName() string {
	if obj.OutputColumn == "" {
		return obj.InputColumn
	}
	return obj.OutputColumn
}

func (obj ColumnExpression) ReplacesInput() bool {
	return obj.OutputName() == obj.InputColumn
}

func (obj ColumnExpression) OutputField() arrow.Field {
	return arrow.Field{
		Name:     obj.OutputName(),
		Type:     obj.Mapper.OutputType(),
		Nullable: true,
	}
}

func (obj ColumnExpression) Validate() error {
	if obj.InputColumn == "" {
		return fmt.Errorf("%w| input column is required", ErrExpressionInvalid)
	}
	if obj.Mapper == nil {
		return fmt.Errorf("%w| column %s has no mapper", ErrExpressionInvalid, obj.InputColumn)
	}
	if obj.Mapper.Name() == "" {
		return fmt.Errorf("%w| mapper for column %s has no name", ErrExpressionInvalid, obj.InputColumn)
	}
	return nil
}

// ValidateInput checks the expression against the schema it will run on.
func (obj ColumnExpression) ValidateInput(schema *arrow.Schema) (int, error) {
	if err := obj.Validate(); err != nil {
		return 0, err
	}

	idxs := schema.FieldIndices(obj.InputColumn)
	if len(idxs) == 0 {
		return 0, fmt.Errorf("%w| column %s", ErrColumnNotFound, obj.InputColumn)
	} else if len(idxs) > 1 {
		return 0, fmt.Errorf("%w| column %s appears %d times", ErrExpressionInvalid, obj.InputColumn, len(idxs))
	}

	if schema.Field(idxs[0]).Type.ID() != arrow.STRING {
		return 0, fmt.Errorf(
			"%w| column %s has type %s",
			ErrColumnTypeNotString,
			obj.InputColumn,
			schema.Field(idxs[0]).Type,
		)
	}
	return idxs[0], nil
}
