package iou_test

import (
	"testing"

	"github.com/iov-one/iou"
	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	defer func(commit string) { iou.GitCommit = commit }(iou.GitCommit)

	iou.GitCommit = ""
	assert.Equal(t, "v0.1.0", iou.Version())

	iou.GitCommit = "12345678"
	assert.Equal(t, "v0.1.0 12345678", iou.Version())
}
