// Package metrics records build and preview metrics.
//
// Components receive a Recorder and default to NoopRecorder, so nothing
// needs a nil check. The preview server swaps in a PrometheusRecorder and
// exposes its registry at /metrics.
package metrics
