package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpen_RejectsMalformedDSN(t *testing.T) {
	_, err := Open(context.Background(), "://not-a-valid-dsn", 0, 0)
	assert.Error(t, err)
}
