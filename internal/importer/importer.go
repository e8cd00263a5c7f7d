package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"mime"
	"strings"

	"catalog/internal/apperrors"

	"github.com/xuri/excelize/v2"
)

const (
	MimeCSV  = "text/csv"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Record is one decoded data row keyed by header name. Blank cells are omitted.
type Record map[string]string

// Parse decodes data according to the declared media type. The content is never sniffed.
func Parse(data []byte, mimeType string) ([]Record, error) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return nil, apperrors.New(apperrors.UnsupportedFormat, "Unsupported file format %q. Use CSV or XLSX", mimeType)
	}

	switch mediaType {
	case MimeCSV:
		return parseCSV(data)
	case MimeXLSX:
		return parseXLSX(data)
	default:
		return nil, apperrors.New(apperrors.UnsupportedFormat, "Unsupported file format %q. Use CSV or XLSX", mediaType)
	}
}

func parseCSV(data []byte) ([]Record, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ParseError, err, "Failed to parse file")
	}

	var records []Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ParseError, err, "Failed to parse file")
		}
		if rec := toRecord(header, row); len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records, nil
}

func parseXLSX(data []byte) ([]Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ParseError, err, "Failed to parse file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.New(apperrors.ParseError, "Failed to parse file: workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ParseError, err, "Failed to parse file")
	}
	if len(rows) == 0 {
		return []Record{}, nil
	}

	header := rows[0]
	var records []Record
	for _, row := range rows[1:] {
		if rec := toRecord(header, row); len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records, nil
}

// toRecord pairs cells with header names. Cells beyond the header and
// blank cells are dropped, so a blank row yields an empty record.
func toRecord(header, row []string) Record {
	rec := make(Record, len(header))
	for i, cell := range row {
		if i >= len(header) {
			break
		}
		key := strings.TrimSpace(header[i])
		value := strings.TrimSpace(cell)
		if key == "" || value == "" {
			continue
		}
		rec[key] = value
	}
	return rec
}
