package mocks

import (
	"bytes"
	"io"

	"github.com/minio/minio-go/v7"
)

// Objects returns a closed, buffered listing channel for ListObjects stubs.
func Objects(objs ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(objs))
	for _, o := range objs {
		ch <- o
	}
	close(ch)
	return ch
}

// Body wraps data as the reader returned by a GetObject stub.
func Body(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}

// NoSuchKey is the error S3 reports for a missing object.
func NoSuchKey() error {
	return minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
}
