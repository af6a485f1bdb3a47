// Package archiver persists completed analysis results for long-term
// storage: each metric sample as an InfluxDB line-protocol point (for
// feeding a time-series store the same way the ambient stack already
// ingests raw telemetry), each anomaly batch as an Avro object
// container file, and the resulting files uploaded to S3-compatible
// object storage.
package archiver

import (
	"fmt"
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

// EncodeMetricsLineProtocol renders a batch of metric samples as
// InfluxDB line protocol, one line per sample, tagged with the
// destination identifying which capture this batch came from.
func EncodeMetricsLineProtocol(destination string, samples []schema.MetricSample) ([]byte, error) {
	var enc lineprotocol.Encoder
	enc.SetPrecision(lineprotocol.Millisecond)

	for _, s := range samples {
		ts, err := time.Parse("2006-01-02T15:04:05.000Z", s.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("archiver: parsing sample timestamp %q: %w", s.Timestamp, err)
		}

		enc.StartLine("networkTelemetry")
		enc.AddTag("destination", destination)
		enc.AddTag("window", s.Window)
		enc.AddField("bytesPerSecond", lineprotocol.MustNewValue(s.BytesPerSecond))
		enc.AddField("packetsPerSecond", lineprotocol.MustNewValue(s.PacketsPerSecond))
		enc.AddField("flowsPerSecond", lineprotocol.MustNewValue(s.FlowsPerSecond))
		enc.EndLine(ts)

		if err := enc.Err(); err != nil {
			return nil, fmt.Errorf("archiver: encoding line protocol: %w", err)
		}
	}

	return enc.Bytes(), nil
}
