// Package interchange reads and writes the tabular edge format.
//
// Files carry the columns from, to, chosen, tag and is_secret. A header row is
// optional and its column order is free; rows without a header (pasted rows) are
// read positionally in the column order above. Missing columns take their zero
// value. Booleans accept true/false, 1/0 and yes/no in any case; export always
// writes True or False.
package interchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/gamebook/pkg/domain"
)

// Column names, in positional order.
const (
	ColFrom     = "from"
	ColTo       = "to"
	ColChosen   = "chosen"
	ColTag      = "tag"
	ColIsSecret = "is_secret"
)

// Columns is the canonical header.
var Columns = []string{ColFrom, ColTo, ColChosen, ColTag, ColIsSecret}

// Warning describes a row that was skipped.
type Warning struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d: %s", w.Row, w.Reason)
}

// Result is the outcome of an import.
type Result struct {
	Edges    []domain.Edge `json:"edges"`
	Required []string      `json:"required,omitempty"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

type options struct {
	logger *slog.Logger
}

// Option configures Import.
type Option func(*options)

// WithLogger sets a structured logger for skipped rows.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Import reads every row of r. Rows with an empty from or an unreadable boolean
// are skipped with a warning; only an unreadable stream returns an error.
func Import(r io.Reader, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	res := &Result{Edges: []domain.Edge{}}
	seenReq := make(map[string]bool)
	skip := func(row int, reason string) {
		res.Warnings = append(res.Warnings, Warning{Row: row, Reason: reason})
		o.logger.Warn("Skipped malformed row", "row", row, "reason", reason)
	}

	index := positional()
	row := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				row++
				skip(parseErr.Line, parseErr.Err.Error())
				continue
			}
			return nil, fmt.Errorf("failed to read rows: %w", err)
		}
		row++

		if blank(record) {
			continue
		}
		if row == 1 && isHeader(record) {
			index = headerIndex(record)
			continue
		}

		edge, err := decode(record, index)
		if err != nil {
			skip(row, err.Error())
			continue
		}
		res.Edges = append(res.Edges, edge)
		if edge.IsAnnotation() && edge.HasTag(domain.TagRequired) && !seenReq[edge.From] {
			seenReq[edge.From] = true
			res.Required = append(res.Required, edge.From)
		}
	}
	return res, nil
}

// Export writes edges with a header row. Required nodes that have no Required
// annotation among edges are written as annotation rows after them, so that an
// import of the output restores the same required set.
func Export(w io.Writer, edges []domain.Edge, required []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	annotated := make(map[string]bool)
	for _, e := range edges {
		if e.IsAnnotation() && e.HasTag(domain.TagRequired) {
			annotated[e.From] = true
		}
		if err := cw.Write(encode(e)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	for _, id := range required {
		if id == "" || annotated[id] {
			continue
		}
		annotated[id] = true
		if err := cw.Write(encode(domain.Annotation(id, domain.TagRequired))); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func encode(e domain.Edge) []string {
	return []string{e.From, e.To, formatBool(e.Chosen), e.Tag, formatBool(e.IsSecret)}
}

func decode(record []string, index map[string]int) (domain.Edge, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var e domain.Edge
	e.From = field(ColFrom)
	if e.From == "" {
		return e, errors.New("missing from")
	}
	// Cells are taken verbatim: "None" or "null" is a node id like any other.
	e.To = field(ColTo)
	e.Tag = field(ColTag)

	var err error
	if e.Chosen, err = parseBool(field(ColChosen)); err != nil {
		return e, fmt.Errorf("column %s: %w", ColChosen, err)
	}
	if e.IsSecret, err = parseBool(field(ColIsSecret)); err != nil {
		return e, fmt.Errorf("column %s: %w", ColIsSecret, err)
	}
	return e, nil
}

func positional() map[string]int {
	index := make(map[string]int, len(Columns))
	for i, name := range Columns {
		index[name] = i
	}
	return index
}

// isHeader accepts a first row whose cells are all known column names and that
// names the from column.
func isHeader(record []string) bool {
	known := positional()
	hasFrom := false
	for _, cell := range record {
		name := normalize(cell)
		if name == "" {
			continue
		}
		if _, ok := known[name]; !ok {
			return false
		}
		if name == ColFrom {
			hasFrom = true
		}
	}
	return hasFrom
}

func headerIndex(record []string) map[string]int {
	index := make(map[string]int, len(record))
	for i, cell := range record {
		name := normalize(cell)
		if _, dup := index[name]; name == "" || dup {
			continue
		}
		index[name] = i
	}
	return index
}

func normalize(cell string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cell), "\ufeff"))
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "0", "no":
		return false, nil
	case "true", "1", "yes":
		return true, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
