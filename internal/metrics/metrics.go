// Package metrics defines the Prometheus collectors exported by
// sqlite-native-go. Collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Keys for outcome labels.
const (
	Fail = "fail"
	Ok   = "ok"
)

// Collectors for the native call bridge.
var (
	NativeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_native_errors_total",
		Help: "Cumulative number of native calls which returned an unexpected status code.",
	}, []string{"code"})
	LibraryLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_library_loads_total",
		Help: "Cumulative number of native library loads.",
	}, []string{"status"})
)

// Collectors for binary provisioning.
var (
	BinaryFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_binary_fetch_total",
		Help: "Cumulative number of binary fetches, by resolved source.",
	}, []string{"source", "status"})
	BinaryFetchBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sqlite_binary_fetch_bytes_total",
		Help: "Cumulative number of bytes installed into the binary cache.",
	})
)

// Collectors for connections, statements and transactions.
var (
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sqlite_connections_open",
		Help: "Number of currently open connections.",
	})
	StatementsPreparedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sqlite_statements_prepared_total",
		Help: "Cumulative number of prepared statements.",
	})
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_transactions_total",
		Help: "Cumulative number of transaction frames, by kind and outcome.",
	}, []string{"kind", "outcome"})
)
