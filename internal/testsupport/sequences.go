package testsupport

import (
	"github.com/google/uuid"
)

// UniqueRunID generates a run id that never collides with a real run
func UniqueRunID() string {
	return "test-" + uuid.New().String()
}
