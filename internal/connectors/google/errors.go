package google

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// quotaReasons are 403 reasons that mean "slow down", not "no access".
var quotaReasons = []string{"rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded"}

// IsRateLimited reports a 429, a quota 403, or an error already mapped
// to domain.ErrRateLimited.
func IsRateLimited(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusTooManyRequests || (gerr.Code == http.StatusForbidden && quotaError(gerr))
}

func quotaError(gerr *googleapi.Error) bool {
	return slices.ContainsFunc(gerr.Errors, func(item googleapi.ErrorItem) bool {
		return slices.Contains(quotaReasons, item.Reason)
	})
}

// RetryAfter returns the Retry-After seconds of a throttled response, or 0.
func RetryAfter(err error) int {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	n, err := strconv.Atoi(gerr.Header.Get("Retry-After"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// WrapError maps a Google API failure onto the domain error the sync
// guard acts on, keeping the original in the chain:
//
//	401            ErrAuthExpired, refresh and retry once
//	403 quota, 429 ErrRateLimited
//	403 other      ErrAuthInvalid, the grant lost its scope
//	404            ErrNotFound, the mailbox or calendar is gone
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var mapped error
	switch {
	case gerr.Code == http.StatusUnauthorized:
		mapped = domain.ErrAuthExpired
	case IsRateLimited(gerr):
		mapped = domain.ErrRateLimited
	case gerr.Code == http.StatusForbidden:
		mapped = domain.ErrAuthInvalid
	case gerr.Code == http.StatusNotFound:
		mapped = domain.ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, mapped, err)
}
