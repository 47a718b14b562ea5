package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileRecord_DisplayName(t *testing.T) {
	r := &FileRecord{LogicalName: "clip1"}
	assert.Equal(t, "clip1", r.DisplayName())

	r.Title = "Sunset timelapse"
	assert.Equal(t, "Sunset timelapse", r.DisplayName())
}

func TestFileRecord_ExpiresAt(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &FileRecord{CreatedAt: created}
	assert.Equal(t, created.Add(30*24*time.Hour), r.ExpiresAt(30*24*time.Hour))
}

func TestOwnerProfile_Unlimited(t *testing.T) {
	assert.True(t, (&OwnerProfile{UploadLimit: 0}).Unlimited())
	assert.True(t, (&OwnerProfile{UploadLimit: -1}).Unlimited())
	assert.False(t, (&OwnerProfile{UploadLimit: 5}).Unlimited())
}
