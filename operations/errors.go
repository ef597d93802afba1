package operations

import "errors"

var (
	ErrMapperAlreadyAddedToRegistry = errors.New("mapper already added to registry")
	ErrMapperNotFound               = errors.New("mapper not found")
	ErrExpressionFailed             = errors.New("expression evaluation failed")
)
