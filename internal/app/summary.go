package service

import "time"

// Source outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeEmpty  = "empty"
	OutcomeFailed = "failed"
)

// SourceResult reports one acquisition.
type SourceResult struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Rows    int    `json:"rows"`
	Error   string `json:"error,omitempty"`
}

// ExportResult reports one export file.
type ExportResult struct {
	Name  string `json:"name"`
	File  string `json:"file"`
	Path  string `json:"path,omitempty"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

// Written reports whether the export produced a file.
func (e ExportResult) Written() bool { return e.Path != "" }

// Summary describes one pipeline run.
type Summary struct {
	RunID    string         `json:"run_id"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Sources  []SourceResult `json:"sources"`
	Exports  []ExportResult `json:"exports"`
	Error    string         `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (s Summary) Duration() time.Duration { return s.Finished.Sub(s.Started) }

// Export returns the result of the export called name.
func (s Summary) Export(name string) (ExportResult, bool) {
	for _, e := range s.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return ExportResult{}, false
}
