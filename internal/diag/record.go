package diag

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion identifies the layout of Record. Bump it when a field changes meaning.
const SchemaVersion = 1

// RecordStart is the byte every structured diagnostic line starts with.
const RecordStart = '{'

// ErrInvalidRecord is returned for lines that are not a structured diagnostic.
var ErrInvalidRecord = errors.New("invalid diagnostic record")

// Code is the optional classification of a diagnostic.
type Code struct {
	Code        string  `json:"code"`
	Explanation *string `json:"explanation"`
}

// Span points at a region of a source file.
type Span struct {
	FileName    string  `json:"file_name"`
	ByteStart   uint32  `json:"byte_start"`
	ByteEnd     uint32  `json:"byte_end"`
	LineStart   uint32  `json:"line_start"`
	LineEnd     uint32  `json:"line_end"`
	ColumnStart uint32  `json:"column_start"`
	ColumnEnd   uint32  `json:"column_end"`
	IsPrimary   bool    `json:"is_primary"`
	Label       *string `json:"label"`
	// SuggestedReplacement is nil when the compiler offers no edit for the span.
	SuggestedReplacement    *string `json:"suggested_replacement"`
	SuggestionApplicability *string `json:"suggestion_applicability"`
}

// Replacement returns the suggested replacement text or "".
func (s Span) Replacement() string {
	if s.SuggestedReplacement == nil {
		return ""
	}
	return *s.SuggestedReplacement
}

// Record is one structured diagnostic (top-level or child).
type Record struct {
	Message  string   `json:"message"`
	Code     *Code    `json:"code"`
	Level    string   `json:"level"`
	Spans    []Span   `json:"spans"`
	Children []Record `json:"children"`
	Rendered *string  `json:"rendered"`
}

// UnmarshalJSON decodes a record and rejects it when "message" is missing.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var wire struct {
		plain
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Message == nil {
		return fmt.Errorf("%w: missing message", ErrInvalidRecord)
	}
	*r = Record(wire.plain)
	r.Message = *wire.Message
	return nil
}

// Decode parses one diagnostic line.
func Decode(line []byte) (*Record, error) {
	if len(line) == 0 || line[0] != RecordStart {
		return nil, ErrInvalidRecord
	}
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return &rec, nil
}

// Classified reports whether the compiler attached a code to the record.
func (r *Record) Classified() bool {
	return r != nil && r.Code != nil
}

// FirstChild returns the first child record, if any.
func (r *Record) FirstChild() (*Record, bool) {
	if r == nil || len(r.Children) == 0 {
		return nil, false
	}
	return &r.Children[0], true
}

// ConfinedTo reports whether the record only talks about files accepted by same.
//
// Top-level spans are checked only when primary: secondary spans such as
// "similarly named macro defined here" legitimately point into other files.
// Every span of every child is checked. Spans without a file name are ignored.
func (r *Record) ConfinedTo(same func(file string) bool) bool {
	if r == nil {
		return false
	}
	for _, sp := range r.Spans {
		if sp.IsPrimary && sp.FileName != "" && !same(sp.FileName) {
			return false
		}
	}
	for i := range r.Children {
		for _, sp := range r.Children[i].Spans {
			if sp.FileName != "" && !same(sp.FileName) {
				return false
			}
		}
	}
	return true
}
