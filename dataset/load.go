package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/enrich/core"
)

// Load reads a JSON array of records from path. When subset is positive
// only the first subset records are returned. A missing file or a document
// that is not a JSON array wraps core.ErrMalformedInput.
func Load(path string, subset int) ([]core.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
	}
	records, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedInput, path, err)
	}
	if subset > 0 && subset < len(records) {
		records = records[:subset]
	}
	return records, nil
}

// LoadResults reads a previously written output document for resuming a
// run. A missing file yields no results and no error.
func LoadResults(path string) ([]core.Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	records, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: results %s: %w", core.ErrMalformedInput, path, err)
	}
	return records, nil
}

func decode(data []byte) ([]core.Record, error) {
	var records []core.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		// "null" decodes without error
		return nil, errors.New("document is not a JSON array")
	}
	return records, nil
}

// ResultsPath returns the retrieval output path for input:
// <outputDir>/<input stem>_results.json.
func ResultsPath(outputDir, input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+"_results.json")
}
