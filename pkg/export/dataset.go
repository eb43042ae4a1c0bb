package export

// Dataset is a table ready for rendering. Each row maps header to cell text;
// a header missing from a row renders as an empty cell.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Record returns the row values ordered by the dataset headers.
func (d Dataset) Record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}
