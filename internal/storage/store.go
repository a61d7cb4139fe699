// Package storage keeps propagation runs on disk: a SQLite catalog of runs
// and arcs, and one CSV file per propagated arc.
package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/propsetup/internal/sim"
)

var (
	ErrRunNotFound     = errors.New("storage: run not found")
	ErrMalformedSeries = errors.New("storage: malformed sample table")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	scenario   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	integrator TEXT NOT NULL,
	step       REAL NOT NULL,
	created_at INTEGER NOT NULL,
	metrics    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS arcs (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	label        TEXT NOT NULL,
	arc_index    INTEGER NOT NULL,
	initial_time REAL NOT NULL,
	final_time   REAL NOT NULL,
	steps        INTEGER NOT NULL,
	reason       TEXT NOT NULL,
	state_size   INTEGER NOT NULL,
	PRIMARY KEY (run_id, label)
);`

type Store struct {
	baseDir string
	db      *sql.DB
}

// Open opens or creates the catalog under baseDir.
func Open(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	dsn := filepath.Join(baseDir, "runs.db") + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Kind       string             `json:"kind"`
	Integrator string             `json:"integrator"`
	Step       float64            `json:"step"`
	Timestamp  time.Time          `json:"timestamp"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Arcs       []ArcMetadata      `json:"arcs"`
}

type ArcMetadata struct {
	Label       string  `json:"label"`
	Index       int     `json:"index"`
	InitialTime float64 `json:"initial_time"`
	FinalTime   float64 `json:"final_time"`
	Steps       int     `json:"steps"`
	Reason      string  `json:"reason"`
	StateSize   int     `json:"state_size"`
}

type labeled struct {
	label  string
	result *sim.Result
}

// arcs flattens an outcome: the single arc first, then the multi-arc arcs.
func arcs(out *sim.Outcome) []labeled {
	var list []labeled
	if out.Single != nil {
		list = append(list, labeled{"single", out.Single})
	}
	if out.Arcs != nil {
		for i, r := range out.Arcs.Arcs {
			if r != nil {
				list = append(list, labeled{fmt.Sprintf("arc_%03d", i), r})
			}
		}
	}
	return list
}

// Save records one run and writes the samples of every arc. Metrics are
// run-level values such as the aggregated energy drift.
func (s *Store) Save(ctx context.Context, scenario, kind string, integ sim.IntegratorSettings, out *sim.Outcome, metrics map[string]float64) (string, error) {
	if out == nil {
		return "", fmt.Errorf("nothing to save")
	}
	runID := uuid.Must(uuid.NewV7()).String()
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if metrics == nil {
		metrics = map[string]float64{}
	}
	encoded, err := json.Marshal(metrics)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, kind, integrator, step, created_at, metrics) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, scenario, kind, integ.Name, integ.Step, time.Now().UTC().UnixMilli(), string(encoded),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, a := range arcs(out) {
		r := a.result
		if err := writeCSV(filepath.Join(runDir, a.label+".csv"), r); err != nil {
			return "", err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO arcs (run_id, label, arc_index, initial_time, final_time, steps, reason, state_size) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, a.label, r.Arc, r.InitialTime, r.FinalTime, r.StepsTaken, r.TerminationReason, len(r.FinalState),
		); err != nil {
			return "", fmt.Errorf("insert arc %s: %w", a.label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

func writeCSV(path string, r *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(r.States) == 0 {
		w.Flush()
		return w.Error()
	}

	header := []string{"time"}
	for i := range r.States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	header = append(header, r.DependentHeaders...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range r.States {
		row := []string{strconv.FormatFloat(r.Times[i], 'g', -1, 64)}
		for _, val := range r.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if i < len(r.DependentVariables) {
			for _, val := range r.DependentVariables[i] {
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scenario, kind, integrator, step, created_at, metrics FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunMetadata, error) {
	var (
		meta    RunMetadata
		created int64
		metrics string
	)
	if err := row.Scan(&meta.ID, &meta.Scenario, &meta.Kind, &meta.Integrator, &meta.Step, &created, &metrics); err != nil {
		return RunMetadata{}, err
	}
	meta.Timestamp = time.UnixMilli(created).UTC()
	if err := json.Unmarshal([]byte(metrics), &meta.Metrics); err != nil {
		return RunMetadata{}, fmt.Errorf("decode metrics of run %s: %w", meta.ID, err)
	}
	return meta, nil
}

// Load returns a run with its arcs in order.
func (s *Store) Load(ctx context.Context, runID string) (*RunMetadata, error) {
	meta, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, scenario, kind, integrator, step, created_at, metrics FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT label, arc_index, initial_time, final_time, steps, reason, state_size FROM arcs WHERE run_id = ? ORDER BY label`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a ArcMetadata
		if err := rows.Scan(&a.Label, &a.Index, &a.InitialTime, &a.FinalTime, &a.Steps, &a.Reason, &a.StateSize); err != nil {
			return nil, err
		}
		meta.Arcs = append(meta.Arcs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Series is the sample table of one arc.
type Series struct {
	Times              []float64   `json:"times"`
	States             [][]float64 `json:"states"`
	DependentHeaders   []string    `json:"dependent_headers,omitempty"`
	DependentVariables [][]float64 `json:"dependent_variables,omitempty"`
}

func (s *Store) LoadArc(runID, label string) (*Series, error) {
	csvPath := filepath.Join(s.baseDir, runID, label+".csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := &Series{Times: []float64{}, States: [][]float64{}}
	if len(records) < 2 {
		return series, nil
	}

	header := records[0]
	stateSize := 0
	for _, h := range header[1:] {
		if !strings.HasPrefix(h, "x") {
			break
		}
		if _, err := strconv.Atoi(h[1:]); err != nil {
			break
		}
		stateSize++
	}
	series.DependentHeaders = append([]string(nil), header[1+stateSize:]...)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}
		values := make([]float64, 0, len(record))
		for _, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", csvPath, i+1, err)
			}
			values = append(values, val)
		}
		if len(values) < 1+stateSize {
			return nil, fmt.Errorf("%w: %s line %d has %d fields, header declares %d", ErrMalformedSeries, csvPath, i+1, len(values), 1+stateSize)
		}
		series.Times = append(series.Times, values[0])
		series.States = append(series.States, values[1:1+stateSize])
		if len(values) > 1+stateSize {
			series.DependentVariables = append(series.DependentVariables, values[1+stateSize:])
		}
	}
	return series, nil
}

func (s *Store) LoadStates(runID, label string) ([][]float64, []float64, error) {
	series, err := s.LoadArc(runID, label)
	if err != nil {
		return nil, nil, err
	}
	return series.States, series.Times, nil
}
