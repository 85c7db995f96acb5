package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mkovacev/gridplan/internal/planner/core"
)

// LumiMask restricts processing to {run: [[start, end], ...]} luminosity
// ranges, the JSON format published for certified data.
type LumiMask map[int64][][2]int64

// LoadLumiMask reads a JSON lumi mask from a local file.
func LoadLumiMask(path string) (LumiMask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lumi mask: %w", err)
	}
	return ParseLumiMask(data)
}

// ParseLumiMask decodes the JSON mask format, whose run keys are strings.
func ParseLumiMask(data []byte) (LumiMask, error) {
	var raw map[string][][2]int64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing lumi mask: %w", err)
	}

	mask := make(LumiMask, len(raw))
	for key, ranges := range raw {
		run, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing lumi mask: run %q is not a number", key)
		}
		for _, r := range ranges {
			if r[0] > r[1] {
				return nil, fmt.Errorf("parsing lumi mask: run %d has inverted range [%d, %d]", run, r[0], r[1])
			}
		}
		mask[run] = ranges
	}
	return mask, nil
}

// Filter intersects lumi entries with the mask. An entry partially covered
// by the mask is split into the covered sub-ranges; entries from runs absent
// in the mask are dropped. File attribution is preserved.
func (m LumiMask) Filter(entries []core.LumiRange) []core.LumiRange {
	var filtered []core.LumiRange
	for _, entry := range entries {
		for _, r := range m[entry.Run] {
			start := max(entry.Start, r[0])
			end := min(entry.End, r[1])
			if start > end {
				continue
			}
			filtered = append(filtered, core.LumiRange{
				Run:       entry.Run,
				Start:     start,
				End:       end,
				FileIndex: entry.FileIndex,
			})
		}
	}
	return filtered
}

// ParseRunRange parses a comma-separated list of run numbers and ranges,
// e.g. "259700,259710-259720".
func ParseRunRange(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var runs []int64
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if first, second, ok := strings.Cut(entry, "-"); ok {
			start, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid run range %q: %w", entry, err)
			}
			end, err := strconv.ParseInt(strings.TrimSpace(second), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid run range %q: %w", entry, err)
			}
			if start > end {
				return nil, fmt.Errorf("invalid run range %q: start after end", entry)
			}
			for run := start; run <= end; run++ {
				runs = append(runs, run)
			}
		} else {
			run, err := strconv.ParseInt(entry, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid run number %q: %w", entry, err)
			}
			runs = append(runs, run)
		}
	}
	return runs, nil
}

// FilterRuns keeps only lumi entries whose run is in the list.
func FilterRuns(entries []core.LumiRange, runs []int64) []core.LumiRange {
	keep := make(map[int64]bool, len(runs))
	for _, run := range runs {
		keep[run] = true
	}

	var filtered []core.LumiRange
	for _, entry := range entries {
		if keep[entry.Run] {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
