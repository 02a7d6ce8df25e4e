package notation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/gamebook/pkg/domain"
)

// TagDelimiter separates the destinations of a line from its free-text tag.
const TagDelimiter = "|"

// LineError describes a line that produced no edges. It wraps domain.ErrMalformedLine.
type LineError struct {
	Line   int    `json:"line,omitempty"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (e *LineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Reason)
	}
	return fmt.Sprintf("line %q: %s", e.Text, e.Reason)
}

func (e *LineError) Unwrap() error {
	return domain.ErrMalformedLine
}

// Diagnostic is a non-fatal notice about part of a line that was not applied.
type Diagnostic struct {
	Line   int    `json:"line,omitempty"`
	Token  string `json:"token"`
	Marker string `json:"marker,omitempty"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	if d.Marker != "" {
		return fmt.Sprintf("token %q: marker %q %s", d.Token, d.Marker, d.Reason)
	}
	return fmt.Sprintf("token %q: %s", d.Token, d.Reason)
}

// Result holds the edge-intents produced by one or more lines.
type Result struct {
	Edges    []domain.Edge `json:"edges"`
	Required []string      `json:"required,omitempty"`
	Warnings []Diagnostic  `json:"warnings,omitempty"`
}

func (r *Result) require(id string) {
	for _, existing := range r.Required {
		if existing == id {
			return
		}
	}
	r.Required = append(r.Required, id)
}

func (r *Result) merge(other *Result) {
	r.Edges = append(r.Edges, other.Edges...)
	for _, id := range other.Required {
		r.require(id)
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Parser turns notation lines into edges.
type Parser struct {
	tagInference bool
	logger       *slog.Logger
}

// Option configures the Parser.
type Option func(*Parser)

// WithTagInference enables the legacy rule that treats a trailing token that is
// non-numeric and unmarked as the free-text tag instead of a destination.
func WithTagInference(enabled bool) Option {
	return func(p *Parser) {
		p.tagInference = enabled
	}
}

// WithLogger sets a structured logger for parse diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseLine parses a single line. tag is the caller-supplied free text for the
// chosen edge; an inline "| text" suffix takes precedence over it.
func (p *Parser) ParseLine(line, tag string) (*Result, error) {
	return p.parseLine(0, line, tag)
}

func (p *Parser) parseLine(lineNo int, line, tag string) (*Result, error) {
	text := strings.TrimSpace(line)
	body := text
	if idx := strings.Index(body, TagDelimiter); idx >= 0 {
		if inline := strings.TrimSpace(body[idx+len(TagDelimiter):]); inline != "" {
			tag = inline
		}
		body = body[:idx]
	}
	tag = strings.TrimSpace(tag)

	malformed := func(reason string) (*Result, error) {
		return nil, &LineError{Line: lineNo, Text: text, Reason: reason}
	}

	rawParts := strings.Split(body, ",")
	if strings.TrimSpace(rawParts[0]) == "" {
		if len(rawParts) > 1 {
			return malformed("empty source token")
		}
		return malformed("empty line")
	}

	parts := make([]string, 0, len(rawParts))
	for _, part := range rawParts {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	if p.tagInference && len(parts) >= 3 {
		last := parts[len(parts)-1]
		if !isNumeric(last) && Tokenize(last).Markers.Empty() {
			if tag == "" {
				tag = last
			}
			parts = parts[:len(parts)-1]
		}
	}

	source := Tokenize(parts[0])
	if source.ID == "" {
		return malformed("empty source token")
	}

	res := &Result{}
	warn := func(token string, m Marker, reason string) {
		d := Diagnostic{Line: lineNo, Token: token, Reason: reason}
		if m != 0 {
			d.Marker = m.String()
		}
		res.Warnings = append(res.Warnings, d)
		p.logger.Debug("notation: marker dropped", "line", lineNo, "token", token, "reason", reason)
	}

	// 1. Terminal declaration shorthand ("42x", "42t")
	if len(parts) == 1 {
		if !source.Markers.Has(MarkerDead) && !source.Markers.Has(MarkerEnd) {
			return malformed("need a source and at least one destination")
		}
		loop := domain.Edge{From: source.ID, To: source.ID, Chosen: true}
		if source.Markers.Has(MarkerEnd) {
			loop.Tag = domain.TagEnd
		}
		res.Edges = append(res.Edges, loop)

		rest := source.Markers.Without(MarkerDead).Without(MarkerEnd)
		for _, m := range rest.Ordered() {
			switch m {
			case MarkerRequired:
				res.Edges = append(res.Edges, domain.Annotation(source.ID, domain.TagRequired))
				res.require(source.ID)
			case MarkerStart:
				res.Edges = append(res.Edges, domain.Annotation(source.ID, domain.TagStart))
			default:
				warn(source.Raw, m, "has no meaning on a terminal declaration")
			}
		}
		return res, nil
	}

	dests := make([]Token, 0, len(parts)-1)
	for _, part := range parts[1:] {
		tok := Tokenize(part)
		if tok.ID == "" {
			return malformed(fmt.Sprintf("empty destination token %q", part))
		}
		dests = append(dests, tok)
	}

	// 2. Source annotations, in precedence order
	for _, m := range source.Markers.Ordered() {
		switch m {
		case MarkerSecret:
			res.Edges = append(res.Edges, domain.Edge{From: source.ID, IsSecret: true})
		default:
			res.Edges = append(res.Edges, domain.Annotation(source.ID, m.Tag()))
			if m == MarkerRequired {
				res.require(source.ID)
			}
		}
	}

	// 3. Rejected alternatives: only the Required flag survives
	for _, tok := range dests[:len(dests)-1] {
		res.Edges = append(res.Edges, domain.Edge{From: source.ID, To: tok.ID})
		for _, m := range tok.Markers.Ordered() {
			if m == MarkerRequired {
				res.require(tok.ID)
				continue
			}
			warn(tok.Raw, m, "ignored on a rejected destination")
		}
	}

	// 4. Chosen destination
	chosen := dests[len(dests)-1]
	edge := domain.Edge{
		From:     source.ID,
		To:       chosen.ID,
		Chosen:   true,
		Tag:      tag,
		IsSecret: chosen.Markers.Has(MarkerSecret),
	}
	if chosen.Markers.Has(MarkerEnd) {
		if tag != "" && !strings.EqualFold(tag, domain.TagEnd) {
			warn(chosen.Raw, MarkerEnd, fmt.Sprintf("replaces free-text tag %q", tag))
		}
		edge.Tag = domain.TagEnd
	}
	res.Edges = append(res.Edges, edge)

	if chosen.Markers.Has(MarkerRequired) {
		res.require(chosen.ID)
	}
	if chosen.Markers.Has(MarkerDead) {
		res.Edges = append(res.Edges, domain.Edge{From: chosen.ID, To: chosen.ID, Chosen: true})
	}
	if chosen.Markers.Has(MarkerStart) {
		res.Edges = append(res.Edges, domain.Annotation(chosen.ID, domain.TagStart))
	}

	return res, nil
}

// BatchResult aggregates a multi-line paste.
type BatchResult struct {
	Result
	Lines  int          `json:"lines"`
	Errors []*LineError `json:"errors,omitempty"`
}

// ParseBatch parses every line of text. Blank lines and lines starting with "#"
// are skipped. A malformed line is recorded in Errors and never stops the batch.
func (p *Parser) ParseBatch(text, tag string) *BatchResult {
	batch := &BatchResult{}
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		batch.Lines++

		res, err := p.parseLine(i+1, line, tag)
		if err != nil {
			var lineErr *LineError
			if !errors.As(err, &lineErr) {
				lineErr = &LineError{Line: i + 1, Text: line, Reason: err.Error()}
			}
			p.logger.Warn("Skipped malformed line", "line", i+1, "text", line, "reason", lineErr.Reason)
			batch.Errors = append(batch.Errors, lineErr)
			continue
		}
		batch.merge(res)
	}
	return batch
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
