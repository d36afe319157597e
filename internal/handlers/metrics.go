package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"studiosite/internal/middleware"
)

// HandleMetrics returns JSON statistics about memory usage and visitors
func (h *SiteHandler) HandleMetrics() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		var countries []middleware.CountryStat
		if h.Visitors != nil {
			countries = h.Visitors.TopCountries(20)
		}
		assetCount := 0
		if h.Assets != nil {
			assetCount = h.Assets.Len()
		}

		stats := struct {
			Alloc        string                   `json:"allocated_heap_mb"`  // Active objects in heap
			TotalAlloc   string                   `json:"total_alloc_mb"`     // Cumulative allocs
			Sys          string                   `json:"system_obtained_mb"` // Total RAM asked from OS
			NumGC        uint32                   `json:"gc_cycles"`
			CurrentTime  time.Time                `json:"server_time"`
			Goroutines   int                      `json:"goroutines"`
			Cores        int                      `json:"cpu_cores"`
			Assets       int                      `json:"registered_assets"`
			TopCountries []middleware.CountryStat `json:"top_countries"`
		}{
			Alloc:        bToMb(m.Alloc),
			TotalAlloc:   bToMb(m.TotalAlloc),
			Sys:          bToMb(m.Sys),
			NumGC:        m.NumGC,
			CurrentTime:  time.Now().Local().Truncate(time.Millisecond),
			Goroutines:   runtime.NumGoroutine(),
			Cores:        runtime.NumCPU(),
			Assets:       assetCount,
			TopCountries: countries,
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	})
}

// Helper to format bytes to MB string
func bToMb(b uint64) string {
	mb := float64(b) / 1024 / 1024
	return fmt.Sprintf("%.2f MB", mb)
}
