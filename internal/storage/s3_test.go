package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestS3FetcherStruct(t *testing.T) {
	fetcher := &S3Fetcher{bucket: "test-bucket"}
	assert.Equal(t, "test-bucket", fetcher.bucket)
}

func TestFetcherInterfaceSatisfied(t *testing.T) {
	var _ Fetcher = (*S3Fetcher)(nil)
}
