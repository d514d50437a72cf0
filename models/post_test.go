package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIconForStatus(t *testing.T) {
	assert.Equal(t, "fa fa-globe", IconForStatus(PostPublic))
	assert.Equal(t, "fa fa-key", IconForStatus(PostPrivate))
	assert.Equal(t, "fa fa-group", IconForStatus(PostFriends))

	// Anything unrecognized renders as public.
	assert.Equal(t, "fa fa-globe", IconForStatus(""))
	assert.Equal(t, "fa fa-globe", IconForStatus("bogus"))
}
