package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rana718/ddlseed/internal/types"
	"github.com/klauspost/compress/zip"
)

// TableRows holds the generated rows of one table. Each row has one value
// per entry of Columns, in the same order.
type TableRows struct {
	Table   string
	Columns []string
	Rows    [][]interface{}
}

// OutputPath joins dir and name, appending the format's extension when name
// does not already end with it.
func OutputPath(dir, name string, format types.Format) string {
	ext := format.Extension()
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// writeAtomic writes through a temp file in the destination directory and
// renames it into place, so path never holds a partial file.
func writeAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// WriteSQL writes one INSERT statement per row to path.
func WriteSQL(path string, tables []TableRows, dialect Dialect) error {
	return writeAtomic(path, func(w io.Writer) error {
		return EncodeSQL(w, tables, dialect)
	})
}

// WriteCSVArchive writes every table with rows to its own CSV file in a
// scratch directory, then bundles them into a zip archive at path with one
// <table>.csv entry per table. The scratch directory is always removed.
func WriteCSVArchive(path string, tables []TableRows) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	scratch, err := os.MkdirTemp(dir, ".csv-scratch-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	var entries []string
	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		name := stripQuotes(t.Table) + ".csv"
		if err := writeCSVFile(filepath.Join(scratch, name), t); err != nil {
			return err
		}
		entries = append(entries, name)
	}

	return writeAtomic(path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, name := range entries {
			if err := addZipEntry(zw, scratch, name); err != nil {
				return err
			}
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to finish archive: %w", err)
		}
		return nil
	})
}

func writeCSVFile(path string, t TableRows) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file for %s: %w", t.Table, err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	if err := EncodeCSV(bw, t); err != nil {
		return fmt.Errorf("failed to write CSV file for %s: %w", t.Table, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write CSV file for %s: %w", t.Table, err)
	}
	return file.Close()
}

func addZipEntry(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	return nil
}

// EncodeCSV writes a header of column names followed by one record per row.
// NULL becomes an empty field.
func EncodeCSV(w io.Writer, t TableRows) error {
	writer := csv.NewWriter(w)

	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = stripQuotes(col)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = csvValue(v)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
