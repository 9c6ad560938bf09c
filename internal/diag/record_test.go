package diag

import (
	"errors"
	"testing"
)

const macroLine = `{"$message_type":"diagnostic","message":"cannot find macro ` + "`vec_deque`" + ` in this scope","code":null,"level":"error","spans":[{"file_name":"src/main.rs","byte_start":10,"byte_end":19,"line_start":2,"line_end":2,"column_start":5,"column_end":14,"is_primary":true,"text":[],"label":null,"suggested_replacement":null,"suggestion_applicability":null,"expansion":null}],"children":[{"message":"consider importing this macro:\ncrate::vec_deque","code":null,"level":"help","spans":[],"children":[],"rendered":null}],"rendered":"error: cannot find macro"}`

func TestDecodeKeepsKnownFieldsAndIgnoresUnknown(t *testing.T) {
	rec, err := Decode([]byte(macroLine))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Classified() {
		t.Fatalf("expected unclassified record, got code %+v", rec.Code)
	}
	if rec.Level != "error" {
		t.Fatalf("Level = %q, want error", rec.Level)
	}
	if len(rec.Spans) != 1 || rec.Spans[0].FileName != "src/main.rs" || !rec.Spans[0].IsPrimary {
		t.Fatalf("unexpected spans: %+v", rec.Spans)
	}
	child, ok := rec.FirstChild()
	if !ok {
		t.Fatal("expected a child record")
	}
	if child.Message != "consider importing this macro:\ncrate::vec_deque" {
		t.Fatalf("child message = %q", child.Message)
	}
}

func TestDecodeRejectsMalformedLines(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"plain text", "error: aborting due to previous error"},
		{"truncated json", `{"message":"x",`},
		{"missing message", `{"code":null,"level":"error","spans":[],"children":[]}`},
		{"child missing message", `{"message":"x","children":[{"level":"help"}]}`},
		{"wrong type", `{"message":42}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.line))
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("Decode(%q) error = %v, want ErrInvalidRecord", tc.line, err)
			}
		})
	}
}

func TestConfinedToChecksPrimaryAndChildSpans(t *testing.T) {
	same := func(file string) bool { return file == "src/lib.rs" }
	cases := []struct {
		name string
		rec  Record
		want bool
	}{
		{
			name: "primary in unit",
			rec:  Record{Spans: []Span{{FileName: "src/lib.rs", IsPrimary: true}}},
			want: true,
		},
		{
			name: "primary elsewhere",
			rec:  Record{Spans: []Span{{FileName: "src/other.rs", IsPrimary: true}}},
			want: false,
		},
		{
			name: "secondary elsewhere is tolerated",
			rec: Record{Spans: []Span{
				{FileName: "src/lib.rs", IsPrimary: true},
				{FileName: "/rustc/library/core/src/macros/mod.rs", IsPrimary: false},
			}},
			want: true,
		},
		{
			name: "child span elsewhere",
			rec: Record{
				Spans:    []Span{{FileName: "src/lib.rs", IsPrimary: true}},
				Children: []Record{{Spans: []Span{{FileName: "src/other.rs"}}}},
			},
			want: false,
		},
		{
			name: "no spans",
			rec:  Record{Message: "aborting"},
			want: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.ConfinedTo(same); got != tc.want {
				t.Fatalf("ConfinedTo = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecoderRecordsSkipsNoiseAndCaches(t *testing.T) {
	d, err := NewDecoder(8)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	stream := []byte("   Compiling demo v0.1.0\n" + macroLine + "\n{not json}\n" + macroLine + "\r\n")

	count := 0
	for rec := range d.Records(stream) {
		if rec.Level != "error" {
			t.Fatalf("unexpected record %+v", rec)
		}
		count++
	}
	if count != 2 {
		t.Fatalf("got %d records, want 2", count)
	}
	stats := d.Stats()
	if stats.Lines != 3 || stats.Decoded != 2 || stats.Skipped != 1 || stats.CacheHits != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
