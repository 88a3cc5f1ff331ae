// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package termcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

var (
	replacesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "naibot",
		Subsystem: "cache",
		Name:      "replaces_total",
		Help:      "Whole-store replacements by write-through result.",
	}, []string{"result"})

	categoriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "naibot",
		Subsystem: "cache",
		Name:      "categories",
		Help:      "Categories in the current store.",
	})

	termsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "naibot",
		Subsystem: "cache",
		Name:      "terms",
		Help:      "Terms in the current store.",
	})
)

func observe(s glossary.Store) {
	categoriesGauge.Set(float64(len(s)))
	termsGauge.Set(float64(s.TermCount()))
}
