package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
)

// FormatResults formats the per-file report as text, json or csv.
func (r *Result) FormatResults(format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(r.Files, r.Stats())
	case "csv":
		return formatCSV(r.Files)
	default: // text
		return formatText(r.Files), nil
	}
}

type jsonFile struct {
	pipeline.FileResult
	Error string `json:"error,omitempty"`
}

func formatJSON(files []pipeline.FileResult, stats pipeline.ParallelStats) (string, error) {
	report := struct {
		Files []jsonFile             `json:"files"`
		Stats pipeline.ParallelStats `json:"stats"`
	}{Files: make([]jsonFile, len(files)), Stats: stats}

	for i, f := range files {
		report.Files[i] = jsonFile{FileResult: f}
		if f.Err != nil {
			report.Files[i].Error = f.Err.Error()
		}
	}

	bts, err := json.MarshalIndent(report, "", "  ")
	return string(bts), err
}

func formatCSV(files []pipeline.FileResult) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	rows := [][]string{{"file", "output", "width", "height", "written", "skipped", "duration_ms", "error"}}
	for _, f := range files {
		errText := ""
		if f.Err != nil {
			errText = f.Err.Error()
		}
		rows = append(rows, []string{
			f.Path,
			f.OutputPath,
			strconv.Itoa(f.Width),
			strconv.Itoa(f.Height),
			strconv.Itoa(f.Stats.Written),
			strconv.Itoa(f.Stats.Skipped),
			strconv.FormatInt(f.Duration.Milliseconds(), 10),
			errText,
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return output.String(), nil
}

func formatText(files []pipeline.FileResult) string {
	var output strings.Builder
	for _, f := range files {
		if f.Err != nil {
			output.WriteString(fmt.Sprintf("%s: error: %v\n", f.Path, f.Err))
			continue
		}
		output.WriteString(fmt.Sprintf("%s -> %s (%dx%d, %d skipped, %v)\n",
			f.Path, f.OutputPath, f.Width, f.Height, f.Stats.Skipped, f.Duration.Round(time.Millisecond)))
	}
	return output.String()
}
