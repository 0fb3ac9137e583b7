package httpapi

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers 路由依赖；为 nil 的 handler 不注册
type Handlers struct {
	Arduino   *ArduinoHandler
	FHIR      *FHIRHandler
	Monitor   *MonitorHandler
	Vitals    *VitalsHandler
	Schedules *ScheduleHandler
	// Health /health 附带的组件状态检查，如 "mqtt"
	Health map[string]func() bool
}

// NewRouter 注册全部路由，并挂上 CORS、panic 恢复和请求日志
func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger(logger))

	r.HandleFunc("/health", healthHandler(h.Health)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	if h.Arduino != nil {
		api.HandleFunc("/arduino", h.Arduino.GetData).Methods(http.MethodGet)
	}
	if h.FHIR != nil {
		api.HandleFunc("/fhir/medications", h.FHIR.ListMedications).Methods(http.MethodGet)
	}
	if h.Monitor != nil {
		api.HandleFunc("/monitor", h.Monitor.Get).Methods(http.MethodGet)
		api.HandleFunc("/monitor/latest", h.Monitor.Latest).Methods(http.MethodGet)
		api.HandleFunc("/monitor/start", h.Monitor.Start).Methods(http.MethodPost)
		api.HandleFunc("/monitor/stop", h.Monitor.Stop).Methods(http.MethodPost)
		api.HandleFunc("/monitor/refresh", h.Monitor.Refresh).Methods(http.MethodPost)
		api.HandleFunc("/monitor/simulation", h.Monitor.SetSimulation).Methods(http.MethodPut)
		api.HandleFunc("/monitor/autosave", h.Monitor.SetAutoSave).Methods(http.MethodPut)
	}
	if h.Vitals != nil {
		api.HandleFunc("/vitals", h.Vitals.List).Methods(http.MethodGet)
		api.HandleFunc("/vitals", h.Vitals.Create).Methods(http.MethodPost)
		api.HandleFunc("/vitals/export", h.Vitals.Export).Methods(http.MethodGet)
		api.HandleFunc("/vitals/{id}", h.Vitals.Delete).Methods(http.MethodDelete)
	}
	if h.Schedules != nil {
		api.HandleFunc("/schedules", h.Schedules.List).Methods(http.MethodGet)
		api.HandleFunc("/schedules", h.Schedules.Create).Methods(http.MethodPost)
		api.HandleFunc("/schedules/today", h.Schedules.Today).Methods(http.MethodGet)
		api.HandleFunc("/schedules/{id}", h.Schedules.Update).Methods(http.MethodPut)
		api.HandleFunc("/schedules/{id}", h.Schedules.Delete).Methods(http.MethodDelete)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", UserIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zapRecoveryLogger{logger: logger}),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(cors(r))
}

// healthHandler 服务本身存活即 200；可选组件只报告状态，不影响状态码
func healthHandler(checks map[string]func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if check() {
				body[name] = "connected"
			} else {
				body[name] = "disconnected"
			}
		}
		writeJSON(w, http.StatusOK, body)
	}
}
