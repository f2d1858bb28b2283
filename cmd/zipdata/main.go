// Command zipdata normalizes and checks ZIP datasets used via ZIP_DATA_PATH.
//
// Usage:
//
//	go run ./cmd/zipdata -in raw.csv -out zipdata.csv   # normalize
//	go run ./cmd/zipdata -check -in zipdata.csv         # integrity report
//	go run ./cmd/zipdata -check                         # check the embedded dataset
//
// Normalizing keeps the first row of each ZIP, upper-cases city and state,
// and sorts by ZIP.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/location"
)

var (
	zipPattern   = regexp.MustCompile(`^\d{5}$`)
	statePattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zipdata", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "input CSV (default: embedded dataset)")
	out := fs.String("out", "", "output CSV for the normalized dataset")
	check := fs.Bool("check", false, "report dataset integrity instead of converting")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !*check && *out == "" {
		fs.Usage()
		return 2
	}

	places, err := location.LoadDataset(*in)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	if *check {
		return report(stdout, checkDataset(places), len(places))
	}

	normalized := normalize(places)
	if err := writeFile(*out, normalized); err != nil {
		fmt.Fprintf(stderr, "FATAL: write %s: %v\n", *out, err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %d places (%d duplicates dropped) to %s\n",
		len(normalized), len(places)-len(normalized), *out)
	return 0
}

// normalize dedupes by ZIP keeping the first row, upper-cases names, and sorts by ZIP.
func normalize(places []domain.PlaceRecord) []domain.PlaceRecord {
	seen := make(map[string]bool, len(places))
	out := make([]domain.PlaceRecord, 0, len(places))
	for _, p := range places {
		if seen[p.Zip] {
			continue
		}
		seen[p.Zip] = true
		p.City = strings.ToUpper(p.City)
		p.State = strings.ToUpper(p.State)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Zip < out[j].Zip })
	return out
}

func writeFile(path string, places []domain.PlaceRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := location.WriteDataset(f, places); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func checkDataset(places []domain.PlaceRecord) []*phase {
	unique := &phase{name: "ZIP codes are unique"}
	format := &phase{name: "ZIP codes are 5 digits"}
	states := &phase{name: "States are 2-letter codes"}
	coords := &phase{name: "Coordinates are non-zero"}

	firstLine := make(map[string]int, len(places))
	for i, p := range places {
		line := i + 2
		if prev, ok := firstLine[p.Zip]; ok {
			unique.errorf("line %d: ZIP %s already on line %d", line, p.Zip, prev)
		} else {
			firstLine[p.Zip] = line
		}
		if !zipPattern.MatchString(p.Zip) {
			format.errorf("line %d: ZIP %q", line, p.Zip)
		}
		if !statePattern.MatchString(p.State) {
			states.errorf("line %d: ZIP %s state %q", line, p.Zip, p.State)
		}
		if p.Lat == 0 && p.Lon == 0 {
			coords.errorf("line %d: ZIP %s has no coordinates", line, p.Zip)
		}
	}
	return []*phase{unique, format, states, coords}
}

func report(w io.Writer, phases []*phase, count int) int {
	fmt.Fprintln(w, "=== ZIP Dataset Integrity ===")
	fmt.Fprintln(w)

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", p.name, status)
	}
	fmt.Fprintf(w, "\nRecords: %d\n", count)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll checks passed.")
		return 0
	}
	fmt.Fprintln(w, "\nChecks FAILED.")
	return 1
}
