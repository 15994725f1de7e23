package errx

import (
	"context"
	"errors"
)

// WrapWarehouse maps query-executor failures to the unified AppError type.
// Timeouts keep their own status so callers can tell slow queries apart from
// broken ones.
func WrapWarehouse(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(err, StatusTimeout, WarehouseTimeoutMessage)
	}
	return New(err, StatusBadGateway, WarehouseErrorMessage)
}

// WrapHistory maps watch-history store failures to the unified AppError type.
func WrapHistory(err error) error {
	if err == nil {
		return nil
	}
	return New(err, StatusBadGateway, HistoryErrorMessage)
}
