package config

import (
	"fmt"
	"strconv"
)

// The store rejects batches above this size; the limit must leave
// headroom below it.
const maxBatchLimit = 500

// ValidationResult collects hard errors and advisory warnings from a
// configuration check.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the configuration for values that would break the
// bulk operations at runtime.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	if c.BatchLimit <= 0 {
		result.errorf("batch limit must be positive, got %d", c.BatchLimit)
	} else if c.BatchLimit >= maxBatchLimit {
		result.errorf("batch limit %d leaves no headroom under the store's cap of %d", c.BatchLimit, maxBatchLimit)
	} else if c.BatchLimit > 450 {
		result.warnf("batch limit %d is close to the store's cap of %d", c.BatchLimit, maxBatchLimit)
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		result.errorf("port %q is not numeric", c.Port)
	}

	if c.CloudMode() {
		if c.StorageBucket == "" {
			result.errorf("storage bucket is required when a project id is set")
		}
		if len(c.PreservedAdmins) == 0 {
			result.warnf("no preserved admins configured; an erase run would remove every account")
		}
	} else {
		if c.DatabasePath == "" {
			result.errorf("database path is required in local mode")
		}
		if c.BlobDir == "" {
			result.errorf("blob directory is required in local mode")
		}
	}

	if c.RateLimitRPS <= 0 {
		result.errorf("rate limit rps must be positive, got %v", c.RateLimitRPS)
	}
	if c.RateLimitBurst <= 0 {
		result.errorf("rate limit burst must be positive, got %d", c.RateLimitBurst)
	}

	return result
}
