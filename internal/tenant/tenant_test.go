package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStorageKey(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		want         string
		wantResolved bool
	}{
		{
			name:         "well-formed upload key",
			key:          "uploads/user_001/fridge.pdf",
			want:         "user_001",
			wantResolved: true,
		},
		{
			name:         "nested filename",
			key:          "uploads/user_002/2026/receipt.jpg",
			want:         "user_002",
			wantResolved: true,
		},
		{
			name: "missing uploads prefix",
			key:  "documents/user_001/fridge.pdf",
			want: Unknown,
		},
		{
			name: "no tenant segment",
			key:  "uploads/fridge.pdf",
			want: Unknown,
		},
		{
			name: "empty tenant segment",
			key:  "uploads//fridge.pdf",
			want: Unknown,
		},
		{
			name: "tenant literally named unknown stays sentinel",
			key:  "uploads/unknown/fridge.pdf",
			want: Unknown,
		},
		{
			name: "empty key",
			key:  "",
			want: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := FromStorageKey(tt.key)
			assert.Equal(t, tt.want, id.String())
			assert.Equal(t, tt.wantResolved, id.Resolved())
		})
	}
}

func TestFromString(t *testing.T) {
	assert.True(t, FromString("user_001").Resolved())
	assert.Equal(t, "user_001", FromString("user_001").String())

	assert.False(t, FromString("").Resolved())
	assert.Equal(t, Unknown, FromString("").String())
	assert.False(t, FromString("  ").Resolved())
	assert.False(t, FromString("unknown").Resolved())
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "uploads/user_001/doc.pdf", StorageKey("user_001", "doc.pdf"))
}

func TestRoundTrip(t *testing.T) {
	key := StorageKey("user_042", "warranty.pdf")
	id := FromStorageKey(key)
	assert.True(t, id.Resolved())
	assert.Equal(t, "user_042", id.String())
}
