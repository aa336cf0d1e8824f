package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// CaptureArchive persists captured document crops for audit and tuning.
type CaptureArchive interface {
	Store(ctx context.Context, name string, img image.Image) error
}

type azureArchive struct {
	client    *azblob.Client
	container string
}

// NewAzureArchive creates a blob-backed capture archive.
func NewAzureArchive(accountName, accountKey, container string) (CaptureArchive, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureArchive{client: client, container: container}, nil
}

// Store uploads the crop as a PNG blob.
func (a *azureArchive) Store(ctx context.Context, name string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}

	if _, err := a.client.UploadBuffer(ctx, a.container, name, buf.Bytes(), nil); err != nil {
		return fmt.Errorf("failed to upload capture %q: %w", name, err)
	}
	return nil
}
