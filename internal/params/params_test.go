package params

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvGet(t *testing.T) {
	t.Setenv(ChannelID, "cid-123")

	v, err := Env{}.Get(context.Background(), ChannelID)
	require.NoError(t, err)
	assert.Equal(t, "cid-123", v)
}

func TestEnvGetMissingIsError(t *testing.T) {
	_, err := Env{}.Get(context.Background(), "TICKET_DOES_NOT_EXIST")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not set")
}

func TestFromEnvPicksEnvWithoutRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")

	src, err := FromEnv(context.Background())
	require.NoError(t, err)
	assert.IsType(t, Env{}, src)
}
