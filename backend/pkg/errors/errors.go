package errors

import "errors"

// ErrOptimisticLock the row was modified by someone else between read and write
var ErrOptimisticLock = errors.New("registro alterado por outra operação, recarregue e tente novamente")

// IsOptimisticLock reports whether err is (or wraps) ErrOptimisticLock.
func IsOptimisticLock(err error) bool {
	return errors.Is(err, ErrOptimisticLock)
}
