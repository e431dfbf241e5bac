package usecase

import "time"

// RunReport is the machine-readable summary of one backup invocation.
type RunReport struct {
	GeneratedAt time.Time      `yaml:"generated_at"`
	Mode        string         `yaml:"mode"`
	Destination string         `yaml:"destination"`
	DryRun      bool           `yaml:"dry_run"`
	Sources     []SourceReport `yaml:"sources"`
}

// SourceReport describes one source in a RunReport.
type SourceReport struct {
	Source     string        `yaml:"source"`
	BackupName string        `yaml:"backup_name,omitempty"`
	Container  string        `yaml:"container,omitempty"`
	Chain      []string      `yaml:"chain,omitempty"`
	Counters   Counters      `yaml:"counters"`
	Planned    int           `yaml:"planned"`
	Attempted  int           `yaml:"attempted"`
	Succeeded  int           `yaml:"succeeded"`
	Failures   []CopyFailure `yaml:"failures,omitempty"`
	Error      string        `yaml:"error,omitempty"`
}

// BuildRunReport converts a batch result into its report form.
func BuildRunReport(cfg *Config, result *BackupResult) RunReport {
	report := RunReport{
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Mode:        cfg.Mode.String(),
		Destination: cfg.Destination,
		DryRun:      cfg.DryRun,
		Sources:     make([]SourceReport, 0, len(result.Sources)),
	}
	for _, s := range result.Sources {
		sr := SourceReport{
			Source:     s.Source,
			BackupName: s.BackupName,
			Container:  s.ContainerName,
			Counters:   s.Counters,
			Planned:    s.Summary.Planned,
			Attempted:  s.Summary.Attempted,
			Succeeded:  s.Summary.Succeeded,
			Failures:   s.Summary.Failures,
		}
		for _, c := range s.Chain {
			sr.Chain = append(sr.Chain, c.Name)
		}
		if s.Err != nil {
			sr.Error = s.Err.Error()
		}
		report.Sources = append(report.Sources, sr)
	}
	return report
}
