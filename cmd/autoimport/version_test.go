package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRenderVersionPretty(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "0.1.0", GitCommit: "abc123"}
	renderVersionPretty(&buf, "0.1.0", info, versionOptions{showHash: true, showDate: true})

	out := buf.String()
	if !strings.HasPrefix(out, "autoimport 0.1.0: ") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "commit: abc123\n") || !strings.Contains(out, "built:  unknown\n") {
		t.Fatalf("missing metadata: %q", out)
	}
	if strings.Contains(out, "build trivia") {
		t.Fatalf("hint should be omitted when metadata is requested: %q", out)
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "0.1.0", BuildDate: "2026-01-02"}
	if err := renderVersionJSON(&buf, info, versionOptions{showDate: true}); err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "autoimport" || payload.BuildDate != "2026-01-02" || payload.GitCommit != "" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir() + "/nested"
	var out bytes.Buffer
	initCmd.SetOut(&out)
	defer initCmd.SetOut(nil)

	if err := runInit(initCmd, []string{dir}); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if !strings.Contains(out.String(), "autoimport.toml") {
		t.Fatalf("output = %q", out.String())
	}
	if err := runInit(initCmd, []string{dir}); err == nil {
		t.Fatal("second init should refuse to overwrite")
	}
}
