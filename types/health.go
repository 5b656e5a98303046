package types

type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "UP"
	HealthStatusDown     HealthStatus = "DOWN"
	HealthStatusDegraded HealthStatus = "DEGRADED"
)

type HealthComponent struct {
	Status  HealthStatus `json:"status"`
	Details string       `json:"details,omitempty"`
}

// HealthCheck aggregates the target list and the optional rate-limit store.
type HealthCheck struct {
	Status      HealthStatus               `json:"status"`
	Components  map[string]HealthComponent `json:"components"`
	Version     string                     `json:"version"`
	Timestamp   string                     `json:"timestamp"`
	Uptime      string                     `json:"uptime"`
	ListBackend string                     `json:"listBackend"`
}
