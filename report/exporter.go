package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ridefunnel/model"
)

const exportTag = "Report#Export"

const cellTimeLayout = "2006-01-02 15:04:05"

// NamedResult - One output view with the name it is exported under.
type NamedResult struct {
	Name   string
	Result *model.QueryResult
}

// WriteCSV writes the result table with its header row. Undefined
// cells (nil) come out empty, keeping "no data" distinct from zero.
func WriteCSV(w io.Writer, result *model.QueryResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(result.Headers); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}

	record := make([]string, len(result.Headers))
	for _, row := range result.Rows {
		for i := range record {
			record[i] = cellString(row[i])
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "failed to write csv row")
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush csv")
}

// SaveCSVFiles writes one <name>.csv per view under dir.
func SaveCSVFiles(dir string, views []NamedResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create report dir")
	}

	paths := make([]string, 0, len(views))
	for _, view := range views {
		path := filepath.Join(dir, view.Name+".csv")

		file, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create %s", path)
		}

		if err := WriteCSV(file, view.Result); err != nil {
			file.Close()
			return nil, errors.Wrapf(err, "failed to export %s", view.Name)
		}
		if err := file.Close(); err != nil {
			return nil, errors.Wrapf(err, "failed to close %s", path)
		}

		log.WithFields(log.Fields{"prefix": exportTag, "path": path,
			"rows": len(view.Result.Rows)}).Info("Wrote CSV view.")
		paths = append(paths, path)
	}
	return paths, nil
}

// SaveExcel writes all views into one workbook, a sheet per view.
func SaveExcel(path string, views []NamedResult) error {
	workbook := excelize.NewFile()

	for vi, view := range views {
		index := workbook.NewSheet(view.Name)
		if vi == 0 {
			workbook.SetActiveSheet(index)
		}

		header := make([]interface{}, len(view.Result.Headers))
		for i, h := range view.Result.Headers {
			header[i] = h
		}
		if err := workbook.SetSheetRow(view.Name, "A1", &header); err != nil {
			return errors.Wrapf(err, "failed to write header of sheet %s", view.Name)
		}

		for ri, row := range view.Result.Rows {
			cell, err := excelize.CoordinatesToCellName(1, ri+2)
			if err != nil {
				return errors.Wrap(err, "failed to resolve cell coordinates")
			}

			values := make([]interface{}, len(row))
			for ci := range row {
				values[ci] = excelCell(row[ci])
			}
			if err := workbook.SetSheetRow(view.Name, cell, &values); err != nil {
				return errors.Wrapf(err, "failed to write row %d of sheet %s", ri, view.Name)
			}
		}
	}

	workbook.DeleteSheet("Sheet1")
	if err := workbook.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}

	log.WithFields(log.Fields{"prefix": exportTag, "path": path,
		"sheets": len(views)}).Info("Wrote XLSX workbook.")
	return nil
}

func cellString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.UTC().Format(cellTimeLayout)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func excelCell(value interface{}) interface{} {
	if t, ok := value.(time.Time); ok {
		return t.UTC().Format(cellTimeLayout)
	}
	return value
}
