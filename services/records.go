package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
)

// CountRecords estimates how many records an uploaded dataset holds when the
// client did not say. Best effort: an unparseable file counts as zero.
func CountRecords(filename, mediaType string, content []byte) int {
	switch mediaType {
	case "text/csv":
		return countCSVRecords(content)
	case "application/json":
		return countJSONRecords(content)
	case "text/plain":
		return countLines(content)
	case "application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return countExcelRecords(content)
	}
	return 0
}

// countCSVRecords counts data rows, treating the first row as a header.
func countCSVRecords(content []byte) int {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	rows := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0
		}
		rows++
	}
	if rows > 0 {
		rows--
	}
	return rows
}

func countJSONRecords(content []byte) int {
	var asArray []json.RawMessage
	if err := json.Unmarshal(content, &asArray); err == nil {
		return len(asArray)
	}
	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(content, &asObject); err == nil {
		return 1
	}
	return 0
}

func countLines(content []byte) int {
	count := 0
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// countExcelRecords counts data rows of the active sheet, minus the header.
func countExcelRecords(content []byte) int {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return 0
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) == 0 {
		return 0
	}
	return len(rows) - 1
}
