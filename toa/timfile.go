// Public domain.

package toa

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ReadTim parses observations in the TEMPO2 .tim format: one observation
// per line as
//
//	name freq mjd err site [-flag value ...]
//
// with err in microseconds.  FORMAT and MODE lines are accepted and
// ignored, as are blank lines and comments starting with C or #.  The
// group of each observation is taken from its -f flag when present,
// otherwise from the site column.
//
// Observations are sorted by arrival time; validation beyond that is
// left to NewSet.
func ReadTim(r io.Reader) ([]TOA, error) {
	var toas []TOA
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		switch {
		case strings.HasPrefix(text, "C "), strings.HasPrefix(text, "#"),
			text == "C":
			continue
		case strings.HasPrefix(text, "FORMAT"), strings.HasPrefix(text, "MODE"):
			continue
		}
		o, err := parseTimLine(text)
		if err != nil {
			return nil, fmt.Errorf("toa: line %d: %w", line, err)
		}
		toas = append(toas, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(toas, func(i, j int) bool {
		return toas[i].MJD < toas[j].MJD
	})
	return toas, nil
}

func parseTimLine(text string) (TOA, error) {
	f := strings.Fields(text)
	if len(f) < 5 {
		return TOA{}, fmt.Errorf("%d fields, want at least 5", len(f))
	}
	mjd, err := strconv.ParseFloat(f[2], 64)
	if err != nil {
		return TOA{}, fmt.Errorf("invalid arrival time (%s)", f[2])
	}
	errUs, err := strconv.ParseFloat(f[3], 64)
	if err != nil {
		return TOA{}, fmt.Errorf("invalid uncertainty (%s)", f[3])
	}
	o := TOA{MJD: mjd, Err: errUs * 1e-6, Group: f[4]}
	for i := 5; i+1 < len(f); i += 2 {
		if !strings.HasPrefix(f[i], "-") {
			return TOA{}, fmt.Errorf("expected flag, found %s", f[i])
		}
		if f[i] == "-f" {
			o.Group = f[i+1]
		}
	}
	return o, nil
}

// LoadTim reads a .tim file and returns a validated set.
func LoadTim(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	toas, err := ReadTim(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	set, err := NewSet(toas)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}
