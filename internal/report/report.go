// Package report renders an HTML summary over already-computed backtest
// statistics. The statistics themselves come from the engine's result file;
// nothing here recomputes them.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
)

// Result is the subset of the engine's backtest result file the report uses.
type Result struct {
	Statistics map[string]string `json:"statistics"`

	AlgorithmConfiguration struct {
		Name string `json:"name"`
	} `json:"algorithmConfiguration"`
}

// ParseResult decodes an engine backtest result document.
func ParseResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing backtest result: %w", err)
	}
	if len(r.Statistics) == 0 {
		return nil, fmt.Errorf("backtest result contains no statistics")
	}
	return &r, nil
}

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Backtest report{{with .Name}} - {{.}}{{end}}</title>
<style>
body { font-family: sans-serif; margin: 2rem auto; max-width: 48rem; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
<h1>Backtest report{{with .Name}} - {{.}}{{end}}</h1>
<table>
<tr><th>Statistic</th><th>Value</th></tr>
{{range .Rows}}<tr><td>{{.Key}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
</body>
</html>
`))

type row struct {
	Key, Value string
}

// Render writes the HTML report for a parsed result.
func Render(w io.Writer, r *Result) error {
	rows := make([]row, 0, len(r.Statistics))
	for k, v := range r.Statistics {
		rows = append(rows, row{Key: k, Value: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	data := struct {
		Name string
		Rows []row
	}{Name: r.AlgorithmConfiguration.Name, Rows: rows}

	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
