package archiver

import (
	"context"
	"fmt"

	"github.com/NetCockpit/nc-analyzer/pkg/log"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

// Archiver persists a completed analysis result as a fire-and-forget
// side effect: it never influences the pipeline's computed response,
// only what survives after Context.Serialize has already produced it.
// Metric/baseline samples are archived as InfluxDB line protocol and
// anomalies as an Avro object container file, both uploaded through
// the same Uploader.
type Archiver struct {
	uploader *Uploader
}

// New returns an Archiver that uploads through uploader. A nil/disabled
// uploader makes every Archive call a no-op.
func New(uploader *Uploader) *Archiver {
	return &Archiver{uploader: uploader}
}

// Archive encodes resp's metrics, baseline, and anomalies and uploads
// them under keys derived from destination, tagging the line-protocol
// points with it. Failures are independent: a failed anomaly upload
// doesn't prevent the metrics upload from being attempted.
func (a *Archiver) Archive(ctx context.Context, destination string, resp schema.Response) error {
	if a == nil || a.uploader == nil {
		return nil
	}

	var errs []error

	if len(resp.Metrics) > 0 {
		if err := a.archiveSeries(ctx, destination, "metrics", resp.Metrics); err != nil {
			errs = append(errs, err)
		}
	}
	if len(resp.Baseline) > 0 {
		if err := a.archiveSeries(ctx, destination, "baseline", resp.Baseline); err != nil {
			errs = append(errs, err)
		}
	}
	if len(resp.Anomalies) > 0 {
		encoded, err := EncodeAnomaliesAvro(resp.Anomalies)
		if err != nil {
			errs = append(errs, fmt.Errorf("archiver: encoding anomalies: %w", err))
		} else if err := a.uploader.Upload(ctx, destination+"/anomalies.avro", encoded); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("archiver: %d of %d artifacts failed: %w", len(errs), 3, errs[0])
}

func (a *Archiver) archiveSeries(ctx context.Context, destination, kind string, samples []schema.MetricSample) error {
	encoded, err := EncodeMetricsLineProtocol(destination, samples)
	if err != nil {
		return fmt.Errorf("archiver: encoding %s: %w", kind, err)
	}
	if err := a.uploader.Upload(ctx, destination+"/"+kind+".lp", encoded); err != nil {
		return err
	}
	log.Debugf("archiver: archived %d %s samples for %s", len(samples), kind, destination)
	return nil
}
