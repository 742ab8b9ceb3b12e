package protocol

import "testing"

func TestParseBareTokens(t *testing.T) {
	cmd, err := Parse("PUT a 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Verb != Put || string(cmd.Key) != "a" || string(cmd.Value) != "1" {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseQuotedKeyAndValue(t *testing.T) {
	cmd, err := Parse(`PUT "a" "1"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(cmd.Key) != "a" || string(cmd.Value) != "1" {
		t.Fatalf("got key=%q value=%q", cmd.Key, cmd.Value)
	}
}

func TestParseSingleQuotedKey(t *testing.T) {
	cmd, err := Parse(`GET 'hello world'`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(cmd.Key) != "hello world" {
		t.Fatalf("got key=%q", cmd.Key)
	}
}

func TestParseValueWithInternalSpaces(t *testing.T) {
	cmd, err := Parse(`PUT k this is the value`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(cmd.Value) != "this is the value" {
		t.Fatalf("got value=%q", cmd.Value)
	}
}

func TestParseValueQuotedWithInternalSpaces(t *testing.T) {
	cmd, err := Parse(`PUT k "this has spaces"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(cmd.Value) != "this has spaces" {
		t.Fatalf("got value=%q", cmd.Value)
	}
}

func TestParseValueMismatchedQuoteNotStripped(t *testing.T) {
	cmd, err := Parse(`PUT k "unterminated`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(cmd.Value) != `"unterminated` {
		t.Fatalf("expected verbatim value, got %q", cmd.Value)
	}
}

func TestParseNoArgs(t *testing.T) {
	cmd, err := Parse("SIZE")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Verb != Size || cmd.Key != nil || cmd.Value != nil {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParsePing(t *testing.T) {
	cmd, err := Parse("PING")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Verb != Ping {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseUnknownVerb(t *testing.T) {
	_, err := Parse("FROBNICATE a")
	if err != ErrUnknownCommand {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestParseLowercaseVerbIsUnknown(t *testing.T) {
	// No case-folding is performed; the sender is responsible for
	// uppercasing the verb.
	_, err := Parse("put a 1")
	if err != ErrUnknownCommand {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestParseEmptyLine(t *testing.T) {
	_, err := Parse("")
	if err != ErrInvalidFormat {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestParseWhitespaceOnlyLine(t *testing.T) {
	_, err := Parse("   ")
	if err != ErrInvalidFormat {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestParseKeyOnlyNoValue(t *testing.T) {
	cmd, err := Parse("DELETE mykey")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(cmd.Key) != "mykey" || cmd.Value != nil {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseQuotedKeyLeavesRemainderTrimmed(t *testing.T) {
	cmd, err := Parse(`EXISTS "spaced key"   trailing value`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(cmd.Key) != "spaced key" {
		t.Fatalf("got key=%q", cmd.Key)
	}
	if string(cmd.Value) != "trailing value" {
		t.Fatalf("got value=%q", cmd.Value)
	}
}
