package health

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"fxsim/internal/httputil"
)

type Handler struct {
	startedAt   time.Time
	httpAddr    string
	internalTok string
}

func NewHandler(startedAt time.Time, httpAddr, internalToken string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{
		startedAt:   start,
		httpAddr:    strings.TrimSpace(httpAddr),
		internalTok: strings.TrimSpace(internalToken),
	}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Uptime    string `json:"uptime"`
}

type healthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	UptimeSec int64        `json:"uptime_sec"`
	Uptime    string       `json:"uptime"`
	App       appStats     `json:"app"`
	Process   processStats `json:"process"`
	Runtime   runtimeStats `json:"runtime"`
	Memory    memoryStats  `json:"memory"`
	Build     buildStats   `json:"build"`
}

type appStats struct {
	HTTPAddr string `json:"http_addr"`
}

type processStats struct {
	PID      int    `json:"pid"`
	Hostname string `json:"hostname"`
	GoOS     string `json:"go_os"`
	GoArch   string `json:"go_arch"`
}

type runtimeStats struct {
	GoVersion   string `json:"go_version"`
	Goroutines  int    `json:"goroutines"`
	GoMaxProcs  int    `json:"gomaxprocs"`
	CPUCount    int    `json:"cpu_count"`
	NumGC       uint32 `json:"num_gc"`
	LastGCMsAgo int64  `json:"last_gc_ms_ago"`
}

type memoryStats struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapInuseBytes  uint64 `json:"heap_inuse_bytes"`
	StackInuseBytes uint64 `json:"stack_inuse_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	HeapObjects     uint64 `json:"heap_objects"`
}

type buildStats struct {
	MainPath string `json:"main_path"`
	Version  string `json:"version"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func secureTokenEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *Handler) requireInternalToken(w http.ResponseWriter, r *http.Request) bool {
	if h.internalTok == "" {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "internal token is not configured"})
		return false
	}
	provided := strings.TrimSpace(r.Header.Get("X-Internal-Token"))
	if !secureTokenEqual(provided, h.internalTok) {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "invalid internal token"})
		return false
	}
	return true
}

// Get is a lightweight liveness endpoint. All state is in-process, so there
// is no dependency to probe beyond the process itself.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
	})
}

// Full returns full diagnostics and is protected by X-Internal-Token.
func (h *Handler) Full(w http.ResponseWriter, r *http.Request) {
	if !h.requireInternalToken(w, r) {
		return
	}

	now := time.Now().UTC()
	uptime := h.uptime(now)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	lastGCMsAgo := int64(0)
	if mem.LastGC > 0 {
		lastGCMsAgo = now.Sub(time.Unix(0, int64(mem.LastGC))).Milliseconds()
		if lastGCMsAgo < 0 {
			lastGCMsAgo = 0
		}
	}

	build := buildStats{}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		build.MainPath = strings.TrimSpace(info.Main.Path)
		build.Version = strings.TrimSpace(info.Main.Version)
	}

	host := ""
	if hn, err := os.Hostname(); err == nil {
		host = hn
	}

	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		App: appStats{
			HTTPAddr: h.httpAddr,
		},
		Process: processStats{
			PID:      os.Getpid(),
			Hostname: host,
			GoOS:     runtime.GOOS,
			GoArch:   runtime.GOARCH,
		},
		Runtime: runtimeStats{
			GoVersion:   runtime.Version(),
			Goroutines:  runtime.NumGoroutine(),
			GoMaxProcs:  runtime.GOMAXPROCS(0),
			CPUCount:    runtime.NumCPU(),
			NumGC:       mem.NumGC,
			LastGCMsAgo: lastGCMsAgo,
		},
		Memory: memoryStats{
			AllocBytes:      mem.Alloc,
			HeapAllocBytes:  mem.HeapAlloc,
			HeapInuseBytes:  mem.HeapInuse,
			StackInuseBytes: mem.StackInuse,
			SysBytes:        mem.Sys,
			TotalAllocBytes: mem.TotalAlloc,
			HeapObjects:     mem.HeapObjects,
		},
		Build: build,
	})
}

// Metrics returns basic Prometheus-compatible metrics and is protected by X-Internal-Token.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if !h.requireInternalToken(w, r) {
		return
	}

	now := time.Now().UTC()
	uptime := h.uptime(now)
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "# HELP fxsim_up Service process is running.\n")
	_, _ = fmt.Fprintf(w, "# TYPE fxsim_up gauge\n")
	_, _ = fmt.Fprintf(w, "fxsim_up 1\n")

	_, _ = fmt.Fprintf(w, "# HELP fxsim_uptime_seconds Service uptime in seconds.\n")
	_, _ = fmt.Fprintf(w, "# TYPE fxsim_uptime_seconds gauge\n")
	_, _ = fmt.Fprintf(w, "fxsim_uptime_seconds %d\n", int64(uptime.Seconds()))

	_, _ = fmt.Fprintf(w, "# HELP fxsim_go_goroutines Number of goroutines.\n")
	_, _ = fmt.Fprintf(w, "# TYPE fxsim_go_goroutines gauge\n")
	_, _ = fmt.Fprintf(w, "fxsim_go_goroutines %d\n", runtime.NumGoroutine())
	_, _ = fmt.Fprintf(w, "fxsim_go_gomaxprocs %d\n", runtime.GOMAXPROCS(0))
	_, _ = fmt.Fprintf(w, "fxsim_go_mem_alloc_bytes %d\n", mem.Alloc)
	_, _ = fmt.Fprintf(w, "fxsim_go_mem_heap_alloc_bytes %d\n", mem.HeapAlloc)
	_, _ = fmt.Fprintf(w, "fxsim_go_mem_heap_inuse_bytes %d\n", mem.HeapInuse)
	_, _ = fmt.Fprintf(w, "fxsim_go_mem_sys_bytes %d\n", mem.Sys)
	_, _ = fmt.Fprintf(w, "fxsim_go_gc_count %d\n", mem.NumGC)
}
