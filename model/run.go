package model

import "time"

// Run records one conversion.
type Run struct {
	ID       string        `json:"id"`
	Started  time.Time     `json:"started"`
	URL      string        `json:"url,omitempty"`
	Title    string        `json:"title,omitempty"`
	JSONFile string        `json:"json_file,omitempty"`
	Outputs  []string      `json:"outputs,omitempty"`
	Total    int           `json:"total"`
	Kept     int           `json:"kept"`
	Lost     int           `json:"lost"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Failed reports whether the run ended with an error.
func (r *Run) Failed() bool {
	return r.Error != ""
}
