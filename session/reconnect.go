// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	"github.com/parleychat/parley/wire"
)

// shouldRetry decides whether a lost connection gets another dial.
// attempts counts retries already scheduled since the last success.
// A permanent close code and an exhausted budget both end the run;
// maxAttempts <= 0 means no budget.
func shouldRetry(closeCode int, attempts, maxAttempts int) bool {
	if wire.PermanentCloseCode(closeCode) {
		return false
	}
	if maxAttempts > 0 && attempts >= maxAttempts {
		return false
	}
	return true
}

// backoffDelay returns the wait before retry number attempt (0-based):
// base doubled attempt times, clamped to max.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
