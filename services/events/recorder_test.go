package eventsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(2)

	require.NoError(t, r.Publish(ctx, core.NewEvent("a", 1)))
	require.NoError(t, r.Publish(ctx, core.NewEvent("b", 2)))
	require.NoError(t, r.Publish(ctx, core.NewEvent("a", 3)))

	all := r.Events("")
	require.Len(t, all, 2)
	assert.Equal(t, 2, all[0].Payload)
	assert.Equal(t, 3, all[1].Payload)
	assert.Len(t, r.Events("a"), 1)
}

func TestRecorder_disabled(t *testing.T) {
	r := NewRecorder(0)
	require.NoError(t, r.Publish(context.Background(), core.NewEvent("a", 1)))
	assert.Empty(t, r.Events(""))
}
