package report

import (
	"bytes"
	"strings"
	"testing"
)

const sampleResult = `{
	"statistics": {
		"Total Trades": "12",
		"Sharpe Ratio": "1.21",
		"Net Profit": "4.1%"
	},
	"algorithmConfiguration": {"name": "Basic Template"}
}`

func TestParseResult(t *testing.T) {
	r, err := ParseResult([]byte(sampleResult))
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if r.Statistics["Sharpe Ratio"] != "1.21" {
		t.Errorf("Sharpe Ratio = %q", r.Statistics["Sharpe Ratio"])
	}
	if r.AlgorithmConfiguration.Name != "Basic Template" {
		t.Errorf("name = %q", r.AlgorithmConfiguration.Name)
	}
}

func TestParseResultNoStatistics(t *testing.T) {
	if _, err := ParseResult([]byte(`{}`)); err == nil {
		t.Fatal("expected error for a result without statistics")
	}
}

func TestParseResultInvalidJSON(t *testing.T) {
	if _, err := ParseResult([]byte(`not json`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRenderSortsStatistics(t *testing.T) {
	r, err := ParseResult([]byte(sampleResult))
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, "Basic Template") {
		t.Error("algorithm name missing from report")
	}
	// Rows come out in key order.
	net := strings.Index(html, "Net Profit")
	sharpe := strings.Index(html, "Sharpe Ratio")
	trades := strings.Index(html, "Total Trades")
	if net < 0 || sharpe < 0 || trades < 0 {
		t.Fatalf("statistics missing from report:\n%s", html)
	}
	if !(net < sharpe && sharpe < trades) {
		t.Error("statistics not sorted by key")
	}
}

func TestRenderEscapesValues(t *testing.T) {
	r := &Result{Statistics: map[string]string{"Note": "<script>alert(1)</script>"}}

	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Error("statistic value not escaped")
	}
}
