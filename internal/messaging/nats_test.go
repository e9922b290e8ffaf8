package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClientDropsMessages(t *testing.T) {
	nc, err := NewNATSClient(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, nc.Enabled())
	assert.NoError(t, nc.Publish("seat.held", map[string]any{"trip_id": 1}))
	assert.NoError(t, nc.Close())
}

func TestDisabledClientRefusesSubscriptions(t *testing.T) {
	nc, err := NewNATSClient(Config{})
	require.NoError(t, err)

	_, err = nc.SubscribeQueue("booking.confirmed", "indexer", nil)
	assert.Error(t, err)
}
