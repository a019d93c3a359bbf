package storage

import "context"

// Fetcher retrieves a source video from object storage into a local
// temp file for the pipeline to decode. The returned cleanup func removes
// the temp file and must be called once the caller is done with it.
type Fetcher interface {
	Fetch(ctx context.Context, sourceKey string) (localPath string, cleanup func(), err error)
}

// Ensure S3Fetcher implements Fetcher.
var _ Fetcher = (*S3Fetcher)(nil)
