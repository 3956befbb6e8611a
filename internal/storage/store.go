package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/ising/internal/sim"
)

const (
	metadataFile = "metadata.json"
	curveFile    = "energy.csv"
)

var ErrMalformedCurve = errors.New("storage: malformed energy.csv")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Size         int       `json:"size"`
	Sweeps       int       `json:"sweeps"`
	Seed         int64     `json:"seed"`
	Workers      int       `json:"workers"`
	Replicas     int       `json:"replicas"`
	Temperatures int       `json:"temperatures"`
	ElapsedMs    int64     `json:"elapsed_ms"`
	Metrics      []string  `json:"metrics,omitempty"`
}

// Row is one line of energy.csv.
type Row struct {
	Temperature float64
	Beta        float64
	Energy      float64
	StdErr      float64
	Metrics     map[string]float64
}

// RowsFromResult converts a single run.
func RowsFromResult(res *sim.Result) []Row {
	rows := make([]Row, len(res.Points))
	for i, p := range res.Points {
		rows[i] = Row{Temperature: p.Temperature, Beta: p.Beta, Energy: p.Energy, Metrics: p.Metrics}
	}
	return rows
}

// RowsFromEnsemble converts replica averages. Metrics are averaged over
// replicas.
func RowsFromEnsemble(res *sim.EnsembleResult) []Row {
	rows := make([]Row, len(res.Points))
	for i, p := range res.Points {
		row := Row{Temperature: p.Temperature, Beta: 1 / p.Temperature, Energy: p.Energy, StdErr: p.StdErr}
		for _, run := range res.Runs {
			for name, v := range run.Points[i].Metrics {
				if row.Metrics == nil {
					row.Metrics = make(map[string]float64)
				}
				row.Metrics[name] += v / float64(len(res.Runs))
			}
		}
		rows[i] = row
	}
	return rows
}

func metricNames(rows []Row) []string {
	set := make(map[string]struct{})
	for _, r := range rows {
		for name := range r.Metrics {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Save writes metadata.json and energy.csv under a new run directory and
// returns the run id. ID, Timestamp, Temperatures and Metrics are filled in.
func (s *Store) Save(meta RunMetadata, rows []Row) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("ising_L%d_%d", meta.Size, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	names := metricNames(rows)
	meta.ID = runID
	meta.Timestamp = now
	meta.Temperatures = len(rows)
	meta.Metrics = names

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, curveFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)

	header := append([]string{"temperature", "beta", "energy", "stderr"}, names...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, r := range rows {
		record := []string{
			formatFloat(r.Temperature),
			formatFloat(r.Beta),
			formatFloat(r.Energy),
			formatFloat(r.StdErr),
		}
		for _, name := range names {
			record = append(record, formatFloat(r.Metrics[name]))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadCurve reads energy.csv back into rows.
func (s *Store) LoadCurve(runID string) ([]Row, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, curveFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCurve, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedCurve)
	}

	header := records[0]
	if len(header) < 4 {
		return nil, fmt.Errorf("%w: header has %d columns", ErrMalformedCurve, len(header))
	}
	names := header[4:]

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformedCurve, i+2, header[j], err)
			}
			vals[j] = v
		}

		row := Row{Temperature: vals[0], Beta: vals[1], Energy: vals[2], StdErr: vals[3]}
		if len(names) > 0 {
			row.Metrics = make(map[string]float64, len(names))
			for j, name := range names {
				row.Metrics[name] = vals[4+j]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
