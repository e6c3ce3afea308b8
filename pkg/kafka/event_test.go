package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNewEvent(t *testing.T) {
	event, err := NewEvent("catalog.product.upserted", "prod-1", "product", "catalog-service", testPayload{ID: "prod-1", Name: "Widget"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "catalog.product.upserted", event.EventType)
	assert.Equal(t, "prod-1", event.AggregateID)
	assert.Equal(t, "product", event.AggregateType)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	event, err := NewEvent("catalog.product.deleted", "prod-2", "product", "catalog-service", testPayload{ID: "prod-2"})
	require.NoError(t, err)

	data, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, event.AggregateID, decoded.AggregateID)

	var payload testPayload
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, "prod-2", payload.ID)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "catalog.product.upserted", Topic("product", "upserted"))
}
