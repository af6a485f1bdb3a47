package archiver

import (
	"bytes"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/linkedin/goavro/v2"

	"github.com/NetCockpit/nc-analyzer/pkg/log"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

const anomalyAvroSchema = `{
	"type": "record",
	"name": "AnomalyRecord",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "timestamp", "type": "string"},
		{"name": "metric", "type": "string"},
		{"name": "value", "type": "double"},
		{"name": "baseline", "type": "double"},
		{"name": "zScore", "type": "double"},
		{"name": "direction", "type": "string"},
		{"name": "tagType", "type": ["null", "string"], "default": null},
		{"name": "tagValue", "type": ["null", "string"], "default": null}
	]
}`

// EncodeAnomaliesAvro writes a batch of anomalies into an Avro object
// container file, the durable format anomalies are archived in once a
// request's analysis is complete. Clusters are not Avro-encoded.
func EncodeAnomaliesAvro(anomalies []schema.Anomaly) ([]byte, error) {
	codec, err := goavro.NewCodec(anomalyAvroSchema)
	if err != nil {
		return nil, fmt.Errorf("archiver: compiling anomaly avro schema: %w", err)
	}

	var buf bytes.Buffer
	writer, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               &buf,
		Codec:           codec,
		CompressionName: goavro.CompressionDeflateLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("archiver: creating avro writer: %w", err)
	}

	records := make([]map[string]interface{}, 0, len(anomalies))
	for _, a := range anomalies {
		records = append(records, map[string]interface{}{
			"id":        a.ID,
			"timestamp": a.Timestamp,
			"metric":    a.Metric,
			"value":     a.Value,
			"baseline":  a.Baseline,
			"zScore":    a.ZScore,
			"direction": a.Direction,
			"tagType":   avroOptionalString(a.TagType),
			"tagValue":  avroOptionalString(a.TagValue),
		})
	}

	if err := writer.Append(records); err != nil {
		return nil, fmt.Errorf("archiver: appending anomaly records: %w", err)
	}

	log.Debugf("archiver: encoded %s anomaly records into %d bytes of avro", humanize.Comma(int64(len(records))), buf.Len())
	return buf.Bytes(), nil
}

func avroOptionalString(v string) interface{} {
	if v == "" {
		return nil
	}
	return goavro.Union("string", v)
}
