package batch

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/imgpress/internal/caption"
)

func TestReportRoundtrip(t *testing.T) {
	r := NewReport("webp")
	r.Records = append(r.Records,
		Record{
			File:   "cards/hero.jpg",
			Status: StatusDone,
			Source: SourceInfo{Type: "image/jpeg", Width: 4000, Height: 3000, Size: 1_800_000},
			Output: &OutputInfo{
				Path: "cards/hero.1280x960.abcd1234.webp",
				Type: "image/webp", Width: 1280, Height: 960,
				Size: 240_000, Hash: "abcd1234abcd1234",
			},
			Caption: &caption.Meta{Alt: "hero", Description: "Image optimized for web publishing."},
			Passes:  1,
		},
		Record{
			File:   "tiny.png",
			Status: StatusDone,
			Source: SourceInfo{Type: "image/png", Width: 400, Height: 300, Size: 8_000},
			Output: &OutputInfo{
				Path: "tiny.400x300.beef0000.png",
				Type: "image/png", Width: 400, Height: 300,
				Size: 8_000, Hash: "beef0000beef0000", Original: true,
			},
			Passes: 3,
		},
		Record{
			File:   "broken.gif",
			Status: StatusError,
			Source: SourceInfo{Type: "image/gif", Size: 123},
			Error:  "image decode failed",
		},
	)

	path := filepath.Join(t.TempDir(), ReportFileName)
	if err := WriteJSON(r, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	r2, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if r2.Version != SupportedReportVersion {
		t.Errorf("version: got %d, want %d", r2.Version, SupportedReportVersion)
	}
	if r2.Transform != "webp" {
		t.Errorf("transform: got %q", r2.Transform)
	}
	if len(r2.Records) != 3 {
		t.Fatalf("records: got %d, want 3", len(r2.Records))
	}

	hero := r2.Records[0]
	if hero.Output == nil || hero.Output.Path != "cards/hero.1280x960.abcd1234.webp" {
		t.Errorf("hero output: %+v", hero.Output)
	}
	if hero.Caption == nil || hero.Caption.Alt != "hero" {
		t.Errorf("hero caption: %+v", hero.Caption)
	}

	// WriteJSON recomputes stats before serializing.
	s := r2.Stats
	if s.Processed != 2 || s.Failed != 1 || s.Unchanged != 1 {
		t.Errorf("stats: %+v", s)
	}
	if s.TotalInputBytes != 1_808_000 {
		t.Errorf("input bytes: got %d", s.TotalInputBytes)
	}
	if s.TotalOutputBytes != 248_000 {
		t.Errorf("output bytes: got %d", s.TotalOutputBytes)
	}
}

func TestReportReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	if _, err := ReadJSON(path); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestReportIgnoresUnknownFields(t *testing.T) {
	raw := `{
		"version": 1,
		"generated_at": "2025-06-01T00:00:00Z",
		"transform": "compress",
		"base_path": "./",
		"future_field": "ignored",
		"records": [
			{
				"file": "a.jpg",
				"status": "done",
				"source": { "type": "image/jpeg", "size": 10, "new_meta": true },
				"output": { "path": "a.x.png", "type": "image/png", "size": 5, "hash": "00ff" },
				"passes": 2
			}
		],
		"stats": { "total_input_bytes": 10, "total_output_bytes": 5, "processed": 1, "new_stat": 42 }
	}`

	var r Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal with unknown fields: %v", err)
	}
	if r.Records[0].Passes != 2 {
		t.Errorf("passes: got %d", r.Records[0].Passes)
	}
	if r.Stats.Processed != 1 {
		t.Errorf("processed: got %d", r.Stats.Processed)
	}
}
