package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// formatBatchResults formats the batch processing results in the specified format.
func formatBatchResults(results []FileResult, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(results)
	case "csv":
		return formatCSV(results)
	default: // text
		return formatText(results), nil
	}
}

// formatJSON formats results as JSON.
func formatJSON(results []FileResult) (string, error) {
	batchResult := struct {
		Files []FileResult `json:"files"`
	}{Files: results}
	if batchResult.Files == nil {
		batchResult.Files = []FileResult{}
	}

	bts, err := json.MarshalIndent(batchResult, "", "  ")
	return string(bts), err
}

// formatCSV formats results as CSV, one row per predicted code.
func formatCSV(results []FileResult) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write([]string{"file", "row", "code", "confidence", "branch", "chars", "error"}); err != nil {
		return "", err
	}

	for _, res := range results {
		if res.Detection == nil {
			if err := writer.Write([]string{res.File, "", "", "", "", strconv.Itoa(res.Chars), res.Error}); err != nil {
				return "", err
			}
			continue
		}
		for i, p := range res.Detection.Predictions {
			row := []string{
				res.File,
				strconv.Itoa(i),
				p.Code,
				fmt.Sprintf("%.3f", p.Confidence),
				string(res.Detection.Branch),
				strconv.Itoa(res.Chars),
				"",
			}
			if err := writer.Write(row); err != nil {
				return "", err
			}
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// formatText formats results as one line per file.
func formatText(results []FileResult) string {
	var output strings.Builder
	for _, res := range results {
		switch {
		case res.Error != "":
			fmt.Fprintf(&output, "%s\terror: %s\n", res.File, res.Error)
		case res.Detection != nil:
			fmt.Fprintf(&output, "%s\t%s\t(%s)\n", res.File,
				strings.Join(res.Detection.Codes, ","), res.Detection.Branch)
		default:
			fmt.Fprintf(&output, "%s\n", res.File)
		}
	}
	return output.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
