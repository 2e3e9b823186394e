package state

import (
	"time"

	"prosekit/schema"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start:    time.Now(),
		Registry: schema.DefaultRegistry(),
	}
}
