package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/AnyUserName/imgpress/internal/caption"
)

// ReportFileName is the default name a run report is written under.
const ReportFileName = "imgpress.report.json"

// SupportedReportVersion is the current schema version.
const SupportedReportVersion = 1

// Status tracks an image through the run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Report is the top-level output of one imgpress run.
type Report struct {
	Version     int      `json:"version"`
	GeneratedAt string   `json:"generated_at"`
	Transform   string   `json:"transform"`
	BasePath    string   `json:"base_path"`
	Records     []Record `json:"records"`
	Stats       Stats    `json:"stats"`
}

// Record describes one processed image: its source, the outcome, and
// the generated caption metadata.
type Record struct {
	File    string        `json:"file"`
	Status  Status        `json:"status"`
	Source  SourceInfo    `json:"source"`
	Output  *OutputInfo   `json:"output,omitempty"`
	Caption *caption.Meta `json:"caption,omitempty"`
	Passes  int           `json:"passes,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// SourceInfo holds metadata about the input image. Width and height
// are zero when the header probe failed.
type SourceInfo struct {
	Type   string `json:"type"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Size   int64  `json:"size"`
}

// OutputInfo describes the written result file.
type OutputInfo struct {
	Path   string `json:"path"` // relative to base_path
	Type   string `json:"type"` // resolved MIME type
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Size   int64  `json:"size"`
	Hash   string `json:"hash"` // xxhash64 of the payload
	// Original marks the same-format no-improvement case: the output
	// is the source payload, byte for byte.
	Original bool `json:"original,omitempty"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	Processed        int   `json:"processed"`
	Failed           int   `json:"failed,omitempty"`
	Unchanged        int   `json:"unchanged,omitempty"` // originals returned verbatim
}

// NewReport creates an empty report for the given transform.
func NewReport(transform string) *Report {
	return &Report{
		Version:     SupportedReportVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Transform:   transform,
		BasePath:    "./",
	}
}

// ComputeStats recalculates aggregate statistics from the records.
func (r *Report) ComputeStats() {
	var s Stats
	for _, rec := range r.Records {
		switch rec.Status {
		case StatusDone:
			s.Processed++
			s.TotalInputBytes += rec.Source.Size
			if rec.Output != nil {
				s.TotalOutputBytes += rec.Output.Size
				if rec.Output.Original {
					s.Unchanged++
				}
			}
		case StatusError:
			s.Failed++
		}
	}
	r.Stats = s
}

// WriteJSON serializes the report to a JSON file with stable ordering.
func WriteJSON(r *Report, path string) error {
	r.ComputeStats()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
