// catalog-check validates models/catalog.json for internal consistency:
// every key must be "provider/model-id" matching the entry's own fields,
// deprecated models must name a sunset date, and successor references must
// point at entries that exist. The process exits with code 1 if any problem
// is found so CI can fail the build.
//
// Usage:
//
// go run ./scripts/catalog-check              # uses models/catalog.json in repo root
// go run ./scripts/catalog-check -catalog /path/to/catalog.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
)

type entry struct {
	Provider  string `json:"provider"`
	ModelID   string `json:"model_id"`
	Lifecycle struct {
		Status     string  `json:"status"`
		SunsetDate *string `json:"sunset_date"`
		Successor  *string `json:"successor"`
	} `json:"lifecycle"`
	Pricing struct {
		InputPerMTokens  *float64 `json:"input_per_m_tokens"`
		OutputPerMTokens *float64 `json:"output_per_m_tokens"`
	} `json:"pricing"`
}

func main() {
	catalogPath := flag.String("catalog", "", "path to catalog.json (default: models/catalog.json in cwd)")
	flag.Parse()

	if *catalogPath == "" {
		cwd, _ := os.Getwd()
		*catalogPath = cwd + "/models/catalog.json"
	}

	data, err := os.ReadFile(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read catalog: %v\n", err)
		os.Exit(2)
	}

	var catalog map[string]entry
	if err := json.Unmarshal(data, &catalog); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot parse catalog: %v\n", err)
		os.Exit(2)
	}

	var problems []string
	report := func(key, msg string) {
		problems = append(problems, key+": "+msg)
	}

	for key, e := range catalog {
		provider, modelID, ok := strings.Cut(key, "/")
		if !ok {
			report(key, "key is not provider/model-id")
			continue
		}
		if e.Provider != provider {
			report(key, fmt.Sprintf("provider field %q does not match key", e.Provider))
		}
		if e.ModelID != modelID {
			report(key, fmt.Sprintf("model_id field %q does not match key", e.ModelID))
		}

		switch e.Lifecycle.Status {
		case "preview", "ga":
		case "deprecated":
			if e.Lifecycle.SunsetDate == nil || *e.Lifecycle.SunsetDate == "" {
				report(key, "deprecated without a sunset_date")
			}
		default:
			report(key, fmt.Sprintf("unknown lifecycle status %q", e.Lifecycle.Status))
		}

		if s := e.Lifecycle.Successor; s != nil && *s != "" {
			if _, ok := catalog[*s]; !ok {
				report(key, fmt.Sprintf("successor %q not in catalog", *s))
			}
		}

		if p := e.Pricing.InputPerMTokens; p != nil && *p < 0 {
			report(key, "negative input price")
		}
		if p := e.Pricing.OutputPerMTokens; p != nil && *p < 0 {
			report(key, "negative output price")
		}
	}

	if len(problems) == 0 {
		fmt.Printf("catalog-check: %d entries OK\n", len(catalog))
		return
	}

	sort.Strings(problems)
	fmt.Fprintf(os.Stderr, "catalog-check: %d problem(s):\n", len(problems))
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, "  "+p)
	}
	os.Exit(1)
}
