// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package document

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "naibot",
		Subsystem: "document",
		Name:      "writes_total",
		Help:      "Document writes by result.",
	}, []string{"result"})

	writeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "naibot",
		Subsystem: "document",
		Name:      "write_duration_seconds",
		Help:      "Time spent encoding, rotating and replacing the document.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	backupFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "naibot",
		Subsystem: "document",
		Name:      "backup_failures_total",
		Help:      "Writes that went ahead without rotating the previous document.",
	})

	backupsPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "naibot",
		Subsystem: "document",
		Name:      "backups_pruned_total",
		Help:      "Backups removed by retention.",
	})

	quarantinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "naibot",
		Subsystem: "document",
		Name:      "quarantines_total",
		Help:      "Unreadable documents moved aside.",
	})

	mirrorUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "naibot",
		Subsystem: "document",
		Name:      "mirror_uploads_total",
		Help:      "Backup mirror uploads by result.",
	}, []string{"result"})
)
