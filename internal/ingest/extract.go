package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFile marks manifest entries the worker skips (with a log)
// rather than failing the job.
var ErrUnsupportedFile = errors.New("unsupported file type")

var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
	".pdf": true,
}

// ReadLocalText loads a supported text file from the worker's data
// directory. Paths are normalized and confined to baseDir; traversal
// attempts fail.
func ReadLocalText(baseDir, relativePath string) (string, error) {
	cleaned := filepath.Clean("/" + relativePath)
	full := filepath.Join(baseDir, cleaned)

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("ingest: path %q escapes data directory", relativePath)
	}

	ext := strings.ToLower(filepath.Ext(absFull))
	if !supportedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}

	switch ext {
	case ".txt", ".md":
		data, err := os.ReadFile(absFull)
		if err != nil {
			return "", err
		}
		return string(data), nil

	case ".csv":
		return readCSV(absFull)

	case ".pdf":
		return readPDF(absFull)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
}

// readCSV joins cells by spaces per row, rows by newlines.
func readCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []string
	records, err := reader.ReadAll()
	if err != nil {
		return "", err
	}
	for _, record := range records {
		var cells []string
		for _, cell := range record {
			if cell != "" {
				cells = append(cells, cell)
			}
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return strings.Join(rows, "\n"), nil
}

func readPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", err
	}
	return buf.String(), nil
}
