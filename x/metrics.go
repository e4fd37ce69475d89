/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"context"
	"net/http"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/golang/glog"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	// NumGraphQLRequests is the number of GraphQL operations resolved.
	NumGraphQLRequests = stats.Int64("usergraph/graphql/requests",
		"Total number of GraphQL operations resolved", stats.UnitDimensionless)
	// NumGraphQLErrors is the number of errors reported in GraphQL responses.
	NumGraphQLErrors = stats.Int64("usergraph/graphql/errors",
		"Total number of errors in GraphQL responses", stats.UnitDimensionless)
	// LatencyMs is the time taken to resolve a GraphQL operation.
	LatencyMs = stats.Float64("usergraph/graphql/latency_ms",
		"Latency of GraphQL operations", stats.UnitMilliseconds)
	// NumBatches is the number of batch fetches issued by loaders.
	NumBatches = stats.Int64("usergraph/loader/batches",
		"Total number of loader batch fetches", stats.UnitDimensionless)
	// BatchSize is the number of distinct keys in a loader batch.
	BatchSize = stats.Int64("usergraph/loader/batch_size",
		"Number of keys per loader batch", stats.UnitDimensionless)
	// NumEntities is the number of records held by the store, tagged by kind.
	NumEntities = stats.Int64("usergraph/store/entities",
		"Number of records in the store", stats.UnitDimensionless)

	// Tag keys here
	KeyStatus = tag.MustNewKey("status")
	KeyMethod = tag.MustNewKey("method")
	KeyLoader = tag.MustNewKey("loader")
	KeyKind   = tag.MustNewKey("kind")

	// Tag values here
	TagValueStatusOK    = "ok"
	TagValueStatusError = "error"

	defaultLatencyMsDistribution = view.Distribution(
		0, 0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16,
		20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500,
		650, 800, 1000, 2000, 5000, 10000)

	batchSizeDistribution = view.Distribution(1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024)

	allViews = []*view.View{
		{
			Name:        LatencyMs.Name(),
			Measure:     LatencyMs,
			Description: LatencyMs.Description(),
			Aggregation: defaultLatencyMsDistribution,
			TagKeys:     []tag.Key{KeyMethod, KeyStatus},
		},
		{
			Name:        NumGraphQLRequests.Name(),
			Measure:     NumGraphQLRequests,
			Description: NumGraphQLRequests.Description(),
			Aggregation: view.Count(),
			TagKeys:     []tag.Key{KeyMethod, KeyStatus},
		},
		{
			Name:        NumGraphQLErrors.Name(),
			Measure:     NumGraphQLErrors,
			Description: NumGraphQLErrors.Description(),
			Aggregation: view.Sum(),
			TagKeys:     []tag.Key{KeyMethod},
		},
		{
			Name:        NumBatches.Name(),
			Measure:     NumBatches,
			Description: NumBatches.Description(),
			Aggregation: view.Count(),
			TagKeys:     []tag.Key{KeyLoader, KeyStatus},
		},
		{
			Name:        BatchSize.Name(),
			Measure:     BatchSize,
			Description: BatchSize.Description(),
			Aggregation: batchSizeDistribution,
			TagKeys:     []tag.Key{KeyLoader},
		},

		// Last value aggregations
		{
			Name:        NumEntities.Name(),
			Measure:     NumEntities,
			Description: NumEntities.Description(),
			Aggregation: view.LastValue(),
			TagKeys:     []tag.Key{KeyKind},
		},
	}
)

func init() {
	Check(view.Register(allViews...))
}

// NewMetricsHandler returns an http.Handler exposing all registered views in
// the Prometheus text format, together with the Go runtime and process
// collectors.
func NewMetricsHandler(namespace string) (http.Handler, error) {
	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: namespace,
		Registry:  registry,
		OnError:   func(err error) { glog.Errorf("%v", err) },
	})
	if err != nil {
		return nil, err
	}
	view.RegisterExporter(pe)
	return pe, nil
}

// WithMethod returns a new updated context with the tag KeyMethod set to the given value.
func WithMethod(parent context.Context, method string) context.Context {
	ctx, err := tag.New(parent, tag.Upsert(KeyMethod, method))
	Check(err)
	return ctx
}

// WithTag returns a new updated context with key set to value.
func WithTag(parent context.Context, key tag.Key, value string) context.Context {
	ctx, err := tag.New(parent, tag.Upsert(key, value))
	Check(err)
	return ctx
}

// SinceMs returns the time since startTime in milliseconds (as a float).
func SinceMs(startTime time.Time) float64 {
	return float64(time.Since(startTime)) / 1e6
}
