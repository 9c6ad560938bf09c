// Package testkit holds fakes and builders shared by package tests.
package testkit

import (
	"encoding/json"
	"fmt"
	"strings"

	"autoimport/internal/diag"
)

func ptr(s string) *string { return &s }

// Line marshals rec into one diagnostic line.
func Line(rec diag.Record) string {
	data, err := json.Marshal(rec)
	if err != nil {
		panic(fmt.Sprintf("testkit: marshal record: %v", err))
	}
	return string(data)
}

// Stderr joins diagnostic lines and free text the way a compiler prints them.
func Stderr(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func primary(file string) diag.Span {
	return diag.Span{FileName: file, IsPrimary: true, LineStart: 1, LineEnd: 1, ColumnStart: 1, ColumnEnd: 2}
}

// MissingMacro builds an unclassified "cannot find macro" error in file
// whose first child lists items.
func MissingMacro(file, name string, items ...string) string {
	help := "consider importing one of these items:\n" + strings.Join(items, "\n")
	if len(items) == 1 {
		help = "consider importing this macro:\n" + items[0]
	}
	return Line(diag.Record{
		Message:  fmt.Sprintf("cannot find macro `%s` in this scope", name),
		Level:    "error",
		Spans:    []diag.Span{primary(file)},
		Children: []diag.Record{{Message: help, Level: "help"}},
	})
}

// MissingName builds an E0412/E0425-style error in file whose help child
// carries one "use <path>;" suggestion per path.
func MissingName(file, code, name string, paths ...string) string {
	help := diag.Record{Message: "consider importing one of these items", Level: "help"}
	for _, p := range paths {
		sp := diag.Span{FileName: file, LineStart: 1, LineEnd: 1, ColumnStart: 1, ColumnEnd: 1}
		sp.SuggestedReplacement = ptr("use " + p + ";\n")
		sp.SuggestionApplicability = ptr("MaybeIncorrect")
		help.Spans = append(help.Spans, sp)
	}
	return Line(diag.Record{
		Message:  fmt.Sprintf("cannot find type `%s` in this scope", name),
		Code:     &diag.Code{Code: code},
		Level:    "error",
		Spans:    []diag.Span{primary(file)},
		Children: []diag.Record{help},
	})
}

// Unrelated builds an error without any import suggestion.
func Unrelated(file, msg string) string {
	return Line(diag.Record{
		Message: msg,
		Code:    &diag.Code{Code: "E0308"},
		Level:   "error",
		Spans:   []diag.Span{primary(file)},
	})
}
