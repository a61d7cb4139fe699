package storage

import (
	"context"
	"encoding/json"
	"io"
)

type ExportData struct {
	Run  *RunMetadata       `json:"run"`
	Arcs map[string]*Series `json:"arcs"`
}

// ExportJSON writes a run and the samples of all its arcs as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, runID string, w io.Writer) error {
	meta, err := s.Load(ctx, runID)
	if err != nil {
		return err
	}

	data := ExportData{Run: meta, Arcs: make(map[string]*Series, len(meta.Arcs))}
	for _, a := range meta.Arcs {
		series, err := s.LoadArc(runID, a.Label)
		if err != nil {
			return err
		}
		data.Arcs[a.Label] = series
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
