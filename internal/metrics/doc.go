// Package metrics records pipeline run and stage metrics.
//
// Components receive a Recorder through injection and default to
// NoopRecorder, so no call site needs a nil check. The Prometheus recorder
// is installed when metrics are enabled in the configuration; in watch mode
// its registry is exposed over HTTP by Server.
package metrics
