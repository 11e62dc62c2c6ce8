package engine

import "errors"

// Schema errors (spec.md §7 "Schema errors").
var (
	ErrTableExists        = errors.New("table already exists")
	ErrTableNotFound      = errors.New("table not found")
	ErrNoPrimaryKey       = errors.New("no primary key column declared")
	ErrPKNotInteger       = errors.New("primary key column must be INTEGER")
	ErrColumnNotFound     = errors.New("column not found")
	ErrColumnCountMismatch = errors.New("value count does not match column count")
	ErrTypeMismatch       = errors.New("value type does not match column type")
	ErrCannotUpdatePK     = errors.New("cannot update primary key to a different value")
)

// Data errors (spec.md §7 "Data errors").
var (
	ErrNullValue      = errors.New("non-primary-key column value is null")
	ErrInvalidPKValue = errors.New("primary key value must be an integer")
)
