package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventCBORRoundTrip(t *testing.T) {
	code := uint8(3)
	original := Event{
		Timestamp:  time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC),
		Category:   CategorySecurity,
		DeviceID:   "device-1",
		Message:    "request access finished",
		StatusCode: &code,
		Fields:     map[string]string{"method": "random_pin"},
	}

	data, err := EncodeEvent(original)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	require.Equal(t, original.Category, decoded.Category)
	require.Equal(t, original.DeviceID, decoded.DeviceID)
	require.Equal(t, original.Message, decoded.Message)
	require.Equal(t, *original.StatusCode, *decoded.StatusCode)
	require.Equal(t, original.Fields, decoded.Fields)
}

func TestCBORLoggerWritesStream(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCBORLogger(&buf)

	logger.Log(Event{Category: CategoryDiscovery, DeviceID: "a", Message: "discovered"})
	logger.Log(Event{Category: CategoryFetch, DeviceID: "a", Message: "fetching metadata"})

	dec := NewDecoder(&buf)
	var first, second Event
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	require.Equal(t, "discovered", first.Message)
	require.Equal(t, "fetching metadata", second.Message)
}
