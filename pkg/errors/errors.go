package errors

import "errors"

// ErrOptimisticLock a conditional update matched no row because the record
// changed state since it was read
var ErrOptimisticLock = errors.New("record was modified by another operation, refresh and retry")
