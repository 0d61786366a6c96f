package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/Botforge/internal/core"
)

// loadByExtension selects a format-specific loader and returns the extracted
// text fragments. Unsupported extensions are a content error, never retried.
func loadByExtension(path string) ([]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return loadPDF(path)
	case ".csv":
		return loadCSV(path)
	case ".md", ".txt":
		return loadPlainText(path)
	default:
		return nil, core.NewError(core.KindContent,
			fmt.Sprintf("Unsupported file type: %s. Supported: .csv .md .pdf .txt", ext))
	}
}

func loadPDF(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.KindTransient, "Failed to open the uploaded file", err)
	}
	defer f.Close()

	res, err := docconv.Convert(f, "application/pdf", false)
	if err != nil {
		return nil, core.WrapError(core.KindContent, "Unable to read the uploaded file. Please try a different file.", err)
	}
	if res.Body == "" {
		return nil, nil
	}
	return []string{res.Body}, nil
}

// loadCSV renders each row as "header: value" lines, one fragment per row.
func loadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.KindTransient, "Failed to open the uploaded file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, core.WrapError(core.KindContent, "Unable to read the uploaded file. Please try a different file.", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	var fragments []string
	for _, row := range records[1:] {
		var lines []string
		for i, cell := range row {
			name := fmt.Sprintf("column_%d", i)
			if i < len(headers) {
				name = headers[i]
			}
			lines = append(lines, name+": "+cell)
		}
		fragments = append(fragments, strings.Join(lines, "\n"))
	}
	return fragments, nil
}

func loadPlainText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(core.KindTransient, "Failed to open the uploaded file", err)
	}
	return []string{string(data)}, nil
}
