// Package types defines the shared error taxonomy and request-scoped
// identity helpers used across the platform.
package types
