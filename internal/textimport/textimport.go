// Package textimport moves test texts in and out of spreadsheets.
//
// The first row is a header naming the columns content, language and
// difficulty, plus an optional word_count. Column order does not matter.
package textimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"typeracer/internal/models"
)

const (
	colContent    = "content"
	colLanguage   = "language"
	colDifficulty = "difficulty"
	colWordCount  = "word_count"
)

var header = []string{colContent, colLanguage, colDifficulty, colWordCount}

// ErrMissingColumn is returned when the header lacks a required column
var ErrMissingColumn = errors.New("missing required column")

// ReadFile reads texts from an .xlsx workbook or a .csv file.
// sheet is ignored for CSV; an empty sheet means the first one.
func ReadFile(path, sheet string) ([]models.NewText, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(path)
	}
	return ReadWorkbook(path, sheet)
}

// ReadWorkbook reads texts from a sheet of an .xlsx workbook
func ReadWorkbook(path, sheet string) ([]models.NewText, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return parseRows(rows)
}

// ReadCSV reads texts from a CSV file
func ReadCSV(path string) ([]models.NewText, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]models.NewText, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrMissingColumn)
	}

	index := map[string]int{}
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colContent, colLanguage, colDifficulty} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var texts []models.NewText
	for n, row := range rows[1:] {
		content := cell(row, colContent)
		if content == "" {
			continue
		}
		t := models.NewText{
			Content:    content,
			Language:   cell(row, colLanguage),
			Difficulty: cell(row, colDifficulty),
		}
		if wc := cell(row, colWordCount); wc != "" {
			count, err := strconv.Atoi(wc)
			if err != nil || count < 0 {
				// n is zero-based past the header
				return nil, fmt.Errorf("row %d: invalid word_count %q", n+2, wc)
			}
			t.WordCount = count
		}
		texts = append(texts, t)
	}
	return texts, nil
}

// WriteWorkbook writes texts to a new .xlsx workbook in the layout ReadWorkbook accepts
func WriteWorkbook(path string, texts []models.TestText) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, t := range texts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{t.Content, t.Language, t.Difficulty, t.WordCount}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
