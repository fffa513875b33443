package main

import "testing"

func TestSplitQualified(t *testing.T) {
	server, name, err := splitQualified("filesystem.read_file")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server != "filesystem" || name != "read_file" {
		t.Fatalf("got (%q, %q)", server, name)
	}
}

func TestSplitQualifiedRejectsMissingDot(t *testing.T) {
	if _, _, err := splitQualified("read_file"); err == nil {
		t.Fatal("expected error for unqualified name")
	}
}

func TestSplitQualifiedRejectsEmptyParts(t *testing.T) {
	cases := []string{".read_file", "filesystem.", "."}
	for _, c := range cases {
		if _, _, err := splitQualified(c); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestParseAnyArgsParsesJSONWhenPossible(t *testing.T) {
	out, err := parseAnyArgs([]string{"count=3", "name=hello", "flag=true"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["count"] != float64(3) {
		t.Fatalf("count: got %v", out["count"])
	}
	if out["name"] != "hello" {
		t.Fatalf("name: got %v", out["name"])
	}
	if out["flag"] != true {
		t.Fatalf("flag: got %v", out["flag"])
	}
}

func TestParseAnyArgsEmpty(t *testing.T) {
	out, err := parseAnyArgs(nil)
	if err != nil || out != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", out, err)
	}
}

func TestParseKeyValueRejectsMissingEquals(t *testing.T) {
	if _, _, err := parseKeyValue("no-equals-sign"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseKeyValueTrimsWhitespace(t *testing.T) {
	key, value, err := parseKeyValue(" key = value ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "key" || value != "value" {
		t.Fatalf("got (%q, %q)", key, value)
	}
}
