package dataset

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrMissingColumn reports an input whose schema lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Row is one raw sentence record before strategy transformation. TagInfo is
// the serialized tag annotation list exactly as stored in the corpus.
type Row struct {
	Sentence string
	TagInfo  string
}

// Source streams annotated sentence rows. Next returns io.EOF after the last
// row. Implementations are not safe for concurrent use.
type Source interface {
	Next() (Row, error)
	Close() error
}

// CSVSource reads rows from a CSV export with "sentence" and "tag_info"
// columns. Extra columns are ignored.
type CSVSource struct {
	f        *os.File
	r        *csv.Reader
	sentence int
	tagInfo  int
}

// NewCSVSource opens path and locates the required columns in its header.
func NewCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	src := &CSVSource{f: f, r: r, sentence: -1, tagInfo: -1}
	for i, col := range header {
		switch col {
		case "sentence":
			src.sentence = i
		case "tag_info":
			src.tagInfo = i
		}
	}
	if src.sentence < 0 {
		f.Close()
		return nil, fmt.Errorf("%w: sentence (have %v)", ErrMissingColumn, header)
	}
	if src.tagInfo < 0 {
		f.Close()
		return nil, fmt.Errorf("%w: tag_info (have %v)", ErrMissingColumn, header)
	}
	return src, nil
}

func (s *CSVSource) Next() (Row, error) {
	rec, err := s.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		return Row{}, fmt.Errorf("read csv row: %w", err)
	}
	need := s.sentence
	if s.tagInfo > need {
		need = s.tagInfo
	}
	if len(rec) <= need {
		// Short row; surface it as an empty row so the builder can count
		// the skip instead of aborting the whole run.
		return Row{}, nil
	}
	return Row{Sentence: rec[s.sentence], TagInfo: rec[s.tagInfo]}, nil
}

func (s *CSVSource) Close() error { return s.f.Close() }

// SQLiteSource reads rows from a SQLite corpus database. The table must have
// sentence and tag_info columns.
type SQLiteSource struct {
	db   *sql.DB
	rows *sql.Rows
}

// NewSQLiteSource opens the database at path and starts scanning table.
func NewSQLiteSource(path, table string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	rows, err := db.Query(fmt.Sprintf("SELECT sentence, tag_info FROM %s", quoteIdent(table)))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return &SQLiteSource{db: db, rows: rows}, nil
}

func (s *SQLiteSource) Next() (Row, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return Row{}, fmt.Errorf("scan sqlite rows: %w", err)
		}
		return Row{}, io.EOF
	}
	var row Row
	var sentence, tagInfo sql.NullString
	if err := s.rows.Scan(&sentence, &tagInfo); err != nil {
		return Row{}, fmt.Errorf("scan sqlite row: %w", err)
	}
	row.Sentence = sentence.String
	row.TagInfo = tagInfo.String
	return row, nil
}

// quoteIdent quotes a SQL identifier, doubling embedded double quotes per
// the SQL standard.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SQLiteSource) Close() error {
	s.rows.Close()
	return s.db.Close()
}

// ReadAll drains src into memory. The source is not closed.
func ReadAll(src Source) ([]Row, error) {
	var rows []Row
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}
