// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package batch

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Checkpoint policy names accepted in Config.Checkpoint.
const (
	CheckpointEveryRecord = "every-record"
	CheckpointAtEnd       = "end"
)

// Config holds the knobs of a batch run.
type Config struct {
	// WordBudget is the maximum number of words kept from generated text.
	WordBudget int `yaml:"word_budget"`

	// TopK is the maximum number of hits kept per retrieval query.
	TopK int `yaml:"top_k"`

	// SubsetSize limits the run to the first N records. Zero processes all.
	SubsetSize int `yaml:"subset_size"`

	// IndexName is the search index queried in retrieval mode.
	// Empty searches the backend's default scope.
	IndexName string `yaml:"index_name"`

	// CallTimeout bounds each backend call. Zero means no timeout.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// MaxAttempts is the number of tries per backend call. 1 disables retry.
	MaxAttempts int `yaml:"max_attempts"`

	// RetryDelay is the base delay for exponential backoff between attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// ReportInterval is how often to report progress (number of records).
	ReportInterval int `yaml:"report_interval"`

	// Workers is the number of records transformed concurrently.
	Workers int `yaml:"workers"`

	// Checkpoint selects when the output document is rewritten:
	// CheckpointEveryRecord or CheckpointAtEnd.
	Checkpoint string `yaml:"checkpoint"`
}

// DefaultConfig returns a Config with the stock settings: sequential,
// single-attempt calls, and a checkpoint after every record.
func DefaultConfig() *Config {
	return &Config{
		WordBudget:     100,
		TopK:           100,
		SubsetSize:     0,
		IndexName:      "sampled_redpajama",
		CallTimeout:    0,
		MaxAttempts:    1,
		RetryDelay:     1 * time.Second,
		ReportInterval: 1,
		Workers:        1,
		Checkpoint:     CheckpointEveryRecord,
	}
}

// LoadConfigFile reads a YAML file over the defaults. Keys absent from the
// file keep their default values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.WordBudget < 0 {
		errs = append(errs, errors.New("word_budget cannot be negative"))
	}
	if c.TopK < 0 {
		errs = append(errs, errors.New("top_k cannot be negative"))
	}
	if c.SubsetSize < 0 {
		errs = append(errs, errors.New("subset_size cannot be negative"))
	}
	if c.CallTimeout < 0 {
		errs = append(errs, errors.New("call_timeout cannot be negative"))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, ErrInvalidMaxAttempts)
	}
	if c.RetryDelay < 0 {
		errs = append(errs, errors.New("retry_delay cannot be negative"))
	}
	if c.ReportInterval < 1 {
		errs = append(errs, errors.New("report_interval must be at least 1"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	if c.Checkpoint != CheckpointEveryRecord && c.Checkpoint != CheckpointAtEnd {
		errs = append(errs, fmt.Errorf("checkpoint must be %q or %q, got %q",
			CheckpointEveryRecord, CheckpointAtEnd, c.Checkpoint))
	}
	if len(errs) > 0 {
		return fmt.Errorf("batch config: %w", errors.Join(errs...))
	}
	return nil
}

// CallPolicy returns the backend call policy described by the config.
func (c *Config) CallPolicy() CallPolicy {
	return CallPolicy{
		Timeout:     c.CallTimeout,
		MaxAttempts: c.MaxAttempts,
		RetryDelay:  c.RetryDelay,
	}
}
