// Package noop provides an ObjectStorage that keeps nothing. It is used when
// no object store is configured; documents then carry only their metadata.
package noop

import (
	"context"

	"docproc/internal/domain"
	"docproc/internal/port"
)

type noopStorage struct{}

// NewNoopStorage creates an ObjectStorage that is always disabled.
func NewNoopStorage() port.ObjectStorage {
	return noopStorage{}
}

func (noopStorage) Enabled() bool { return false }

func (noopStorage) Upload(context.Context, port.UploadInput) (*port.UploadOutput, error) {
	return nil, domain.ErrUploadFailed
}

func (noopStorage) Delete(context.Context, string, string) error { return nil }

func (noopStorage) GetPresignedURL(context.Context, string, string, int64) (string, error) {
	return "", nil
}
