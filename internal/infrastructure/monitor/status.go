package monitor

import "time"

type Status struct {
	Driver    string    `json:"driver"`
	Online    bool      `json:"online"`
	Error     string    `json:"error,omitempty"`
	LastCheck time.Time `json:"last_check"`
}
