package errorz

import (
	"errors"
	"fmt"
)

var (
	ErrConnectivity         = errors.New("inventory store unreachable")
	ErrSchemaState          = errors.New("inventory schema is in the wrong state")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrMigrationFailure     = errors.New("migration failed")
	ErrSlotNotFound         = errors.New("tee time slot does not exist")
	ErrInventoryUnavailable = errors.New("inventory table unavailable")
	ErrMaintenance          = errors.New("inventory is under maintenance")
	ErrMigrationInProgress  = errors.New("another migration is in progress")
	ErrInvalidCount         = errors.New("player count must be positive")
	ErrInvalidArgument      = errors.New("invalid argument")
)

// Connectivity wraps a driver error so that it matches ErrConnectivity.
func Connectivity(err error) error {
	return fmt.Errorf("%w: %v", ErrConnectivity, err)
}

// MigrationError reports the step a migration failed on. The whole
// migration has been rolled back when it is returned.
type MigrationError struct {
	Step string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration failed at step %q: %v", e.Step, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

func (e *MigrationError) Is(target error) bool {
	return target == ErrMigrationFailure
}

// SchemaStateError is returned when an operation runs against a schema
// generation it does not support.
type SchemaStateError struct {
	Operation string
	Actual    string
}

func (e *SchemaStateError) Error() string {
	return fmt.Sprintf("%s: cannot run against %s schema", e.Operation, e.Actual)
}

func (e *SchemaStateError) Is(target error) bool {
	return target == ErrSchemaState
}
