// Package policy holds every tunable constant of the adaptive
// re-encoding engine in one table, so thresholds are injected rather
// than scattered as magic numbers through the escalation logic.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Table defines the parameters of the escalation search. Qualities are
// 1-100. Dimensions are pixel caps for the longest side.
type Table struct {
	// Mobile-photo classification: a source whose longest side exceeds
	// MobileMinDimension while its byte size stays under MobileMaxBytes
	// is treated as an already hardware-compressed camera photo and
	// gets more aggressive first-pass parameters.
	MobileMinDimension int   `yaml:"mobile_min_dimension"`
	MobileMaxBytes     int64 `yaml:"mobile_max_bytes"`

	Pass1MaxDimension       int `yaml:"pass1_max_dimension"`
	Pass1Quality            int `yaml:"pass1_quality"`
	Pass1QualityAVIF        int `yaml:"pass1_quality_avif"`
	Pass1MobileMaxDimension int `yaml:"pass1_mobile_max_dimension"`
	Pass1MobileQuality      int `yaml:"pass1_mobile_quality"`
	Pass1MobileQualityAVIF  int `yaml:"pass1_mobile_quality_avif"`

	// Pass 2 reduces the dimension cap and drops quality relative to
	// whatever quality pass 1 actually ran at.
	Pass2MaxDimension int `yaml:"pass2_max_dimension"`
	Pass2QualityDrop  int `yaml:"pass2_quality_drop"`
	Pass2MinQuality   int `yaml:"pass2_min_quality"`

	// Pass 3 is the last resort. Its qualities are ceilings: if pass 2
	// already ran lower, pass 3 keeps the lower value so parameters
	// never climb back up.
	Pass3MaxDimension int `yaml:"pass3_max_dimension"`
	Pass3Quality      int `yaml:"pass3_quality"`
	Pass3QualityJPEG  int `yaml:"pass3_quality_jpeg"`

	// EmergencyJPEGQuality is used for the one-time JPEG re-encode when
	// the encoder silently substitutes the raster default for a
	// requested next-gen format.
	EmergencyJPEGQuality int `yaml:"emergency_jpeg_quality"`

	// MinSavingsRatio decides whether a pass result is good enough to
	// stop escalating: output must be at most ratio * input bytes.
	MinSavingsRatio float64 `yaml:"min_savings_ratio"`

	// TargetBytes is an optional absolute output ceiling. Zero disables
	// it and only the relative savings goal applies.
	TargetBytes int64 `yaml:"target_bytes"`
}

// Default returns the built-in table.
func Default() Table {
	return Table{
		MobileMinDimension: 2000,
		MobileMaxBytes:     2621440, // 2.5 MiB

		Pass1MaxDimension:       1920,
		Pass1Quality:            65,
		Pass1QualityAVIF:        45,
		Pass1MobileMaxDimension: 1280,
		Pass1MobileQuality:      60,
		Pass1MobileQualityAVIF:  40,

		Pass2MaxDimension: 1024,
		Pass2QualityDrop:  15,
		Pass2MinQuality:   10,

		Pass3MaxDimension: 800,
		Pass3Quality:      30,
		Pass3QualityJPEG:  45,

		EmergencyJPEGQuality: 70,

		MinSavingsRatio: 0.9,
		TargetBytes:     0,
	}
}

// Load reads a YAML file and overlays it on the defaults. Keys absent
// from the file keep their default values.
func Load(path string) (Table, error) {
	t := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse policy file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("policy file %s: %w", path, err)
	}
	return t, nil
}

// Validate checks the table for values the engine cannot run with.
func (t Table) Validate() error {
	if t.MobileMinDimension <= 0 {
		return fmt.Errorf("mobile_min_dimension must be positive, got %d", t.MobileMinDimension)
	}
	if t.MobileMaxBytes <= 0 {
		return fmt.Errorf("mobile_max_bytes must be positive, got %d", t.MobileMaxBytes)
	}
	for _, d := range []struct {
		name string
		v    int
	}{
		{"pass1_max_dimension", t.Pass1MaxDimension},
		{"pass1_mobile_max_dimension", t.Pass1MobileMaxDimension},
		{"pass2_max_dimension", t.Pass2MaxDimension},
		{"pass3_max_dimension", t.Pass3MaxDimension},
	} {
		if d.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", d.name, d.v)
		}
	}
	if t.Pass2MaxDimension > t.Pass1MaxDimension || t.Pass3MaxDimension > t.Pass2MaxDimension {
		return fmt.Errorf("pass dimensions must not increase: %d, %d, %d",
			t.Pass1MaxDimension, t.Pass2MaxDimension, t.Pass3MaxDimension)
	}
	for _, q := range []struct {
		name string
		v    int
	}{
		{"pass1_quality", t.Pass1Quality},
		{"pass1_quality_avif", t.Pass1QualityAVIF},
		{"pass1_mobile_quality", t.Pass1MobileQuality},
		{"pass1_mobile_quality_avif", t.Pass1MobileQualityAVIF},
		{"pass2_min_quality", t.Pass2MinQuality},
		{"pass3_quality", t.Pass3Quality},
		{"pass3_quality_jpeg", t.Pass3QualityJPEG},
		{"emergency_jpeg_quality", t.EmergencyJPEGQuality},
	} {
		if q.v < 1 || q.v > 100 {
			return fmt.Errorf("%s must be in 1..100, got %d", q.name, q.v)
		}
	}
	if t.Pass2QualityDrop < 0 {
		return fmt.Errorf("pass2_quality_drop must not be negative, got %d", t.Pass2QualityDrop)
	}
	if t.MinSavingsRatio <= 0 || t.MinSavingsRatio > 1 {
		return fmt.Errorf("min_savings_ratio must be in (0, 1], got %g", t.MinSavingsRatio)
	}
	if t.TargetBytes < 0 {
		return fmt.Errorf("target_bytes must not be negative, got %d", t.TargetBytes)
	}
	return nil
}

// Pass1Params returns the dimension cap and quality for the first pass,
// given the classification and the target format.
func (t Table) Pass1Params(mobile bool, format string) (maxDim, quality int) {
	avif := format == "avif"
	if mobile {
		if avif {
			return t.Pass1MobileMaxDimension, t.Pass1MobileQualityAVIF
		}
		return t.Pass1MobileMaxDimension, t.Pass1MobileQuality
	}
	if avif {
		return t.Pass1MaxDimension, t.Pass1QualityAVIF
	}
	return t.Pass1MaxDimension, t.Pass1Quality
}

// Pass2Params derives the second pass from the quality the first pass
// actually ran at.
func (t Table) Pass2Params(pass1Quality int) (maxDim, quality int) {
	q := pass1Quality - t.Pass2QualityDrop
	if q < t.Pass2MinQuality {
		q = t.Pass2MinQuality
	}
	return t.Pass2MaxDimension, q
}

// Pass3Params returns the final pass. The quality never exceeds what
// pass 2 used, so the parameter sequence stays non-increasing.
func (t Table) Pass3Params(pass2Quality int, format string) (maxDim, quality int) {
	q := t.Pass3Quality
	if format == "jpeg" {
		q = t.Pass3QualityJPEG
	}
	if q > pass2Quality {
		q = pass2Quality
	}
	return t.Pass3MaxDimension, q
}
