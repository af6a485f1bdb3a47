package humanbytes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatZeroAndNegative(t *testing.T) {
	assert.Equal(t, "0 B", Format(0))
	assert.Equal(t, "0 B", Format(-100))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512.0 B", Format(512))
}

func TestFormatKilobytes(t *testing.T) {
	assert.Equal(t, "1.5 KB", Format(1536))
}

func TestFormatMegabytes(t *testing.T) {
	assert.Equal(t, "2.0 MB", Format(2*1024*1024))
}

func TestFormatCapsAtTerabytes(t *testing.T) {
	huge := 1024.0 * 1024 * 1024 * 1024 * 1024
	assert.Equal(t, "1024.0 TB", Format(huge))
}
