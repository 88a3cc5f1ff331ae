// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/server/middleware"
	"github.com/self-exiler/NaiBotAssistant/server/routes"
)

// DefineRoutes sets up all the routes for the application using our custom Router.
func (router *Router) DefineRoutes(api *routes.API) {
	// Health, status and metrics
	router.API("GET", "/health", api.Health)
	router.API("GET", "/status", api.Status)
	router.Handle("GET /metrics", promhttp.Handler())

	// Categories and terms
	router.API("GET", "/categories", api.Categories)
	router.API("GET", "/categories/{category}/terms", api.CategoryTerms)
	router.API("DELETE", "/categories/{category}/terms/{name}", api.DeleteTerm)
	router.API("DELETE", "/terms", api.DeleteTerms)
	router.API("GET", "/stats", api.Stats)

	// Batch editor
	router.API("GET", "/data", api.Data)
	router.API("POST", "/data", api.SaveData)

	// Single entries
	router.API("POST", "/entries", api.AddEntry)

	// Search and prompt assembly
	router.API("GET", "/search", api.Search)
	router.API("POST", "/combine", api.Combine)

	// Import and export
	router.API("GET", "/export/{format}", api.Export)
	router.API("POST", "/import/csv", api.ImportCSV)
	router.API("GET", "/history", api.History)

	// Backups
	router.API("GET", "/backups", api.ListBackups)
	router.API("GET", "/backups/{name}", api.DownloadBackup)
	router.API("POST", "/backups/{name}/restore", api.RestoreBackup)

	// Everything else gets a JSON 404.
	router.HandleFunc("/", middleware.CatchError(func(w http.ResponseWriter, r *http.Request) error {
		http.NotFound(w, r)

		return nil
	}))

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router)
	}
}

var flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})

func registerDebugRoutes(router *Router) {
	err := flightRecorder.Start()
	if err != nil {
		panic(err)
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, r *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
