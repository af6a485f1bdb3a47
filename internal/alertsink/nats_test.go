package alertsink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

func TestConnectWithoutAddressIsNoOp(t *testing.T) {
	sink, err := Connect(Config{})
	require.NoError(t, err)
	require.NotNil(t, sink)

	err = sink.Publish([]schema.Alert{{ID: "a1"}})
	assert.NoError(t, err)

	sink.Close()
}

func TestNilSinkPublishIsNoOp(t *testing.T) {
	var sink *Sink
	assert.NoError(t, sink.Publish([]schema.Alert{{ID: "a1"}}))
	sink.Close()
}
