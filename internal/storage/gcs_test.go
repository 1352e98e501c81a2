package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parley-chat/parley/pkg/constant"
	"github.com/parley-chat/parley/pkg/errcode"
)

func TestValidateAttachment(t *testing.T) {
	t.Run("accepts allowed types", func(t *testing.T) {
		for _, ct := range []string{"image/jpeg", "image/png", "image/gif", "application/pdf"} {
			assert.NoError(t, ValidateAttachment(ct, 1024), ct)
		}
	})

	t.Run("rejects disallowed type before upload", func(t *testing.T) {
		err := ValidateAttachment("application/zip", 1024)
		assert.ErrorIs(t, err, errcode.ErrFileTypeNotAllowed)

		err = ValidateAttachment("video/mp4", 1024)
		assert.ErrorIs(t, err, errcode.ErrFileTypeNotAllowed)
	})

	t.Run("rejects oversize file", func(t *testing.T) {
		assert.NoError(t, ValidateAttachment("image/png", constant.MaxAttachmentSize))

		err := ValidateAttachment("image/png", constant.MaxAttachmentSize+1)
		assert.ErrorIs(t, err, errcode.ErrFileTooLarge)
	})
}

func TestValidatePicture(t *testing.T) {
	t.Run("accepts images only", func(t *testing.T) {
		assert.NoError(t, ValidatePicture("image/jpeg", 1024))

		err := ValidatePicture("application/pdf", 1024)
		assert.ErrorIs(t, err, errcode.ErrFileTypeNotAllowed)
	})

	t.Run("enforces the tighter picture limit", func(t *testing.T) {
		assert.NoError(t, ValidatePicture("image/png", constant.MaxPictureSize))

		err := ValidatePicture("image/png", constant.MaxPictureSize+1)
		assert.ErrorIs(t, err, errcode.ErrFileTooLarge)
	})
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
	assert.Equal(t, ".png", extensionFor("image/png"))
	assert.Equal(t, ".pdf", extensionFor("application/pdf"))
	assert.Equal(t, ".bin", extensionFor("application/octet-stream"))
}
