package cli

import "testing"

func TestParseArgsDefaults(t *testing.T) {
	args, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", args.ListenAddr)
	}
	if args.StoragePath != "~/.config/privalens" {
		t.Errorf("StoragePath = %q", args.StoragePath)
	}
	if !args.Headless {
		t.Error("Headless should default to true")
	}
	if args.Workers != 0 {
		t.Errorf("Workers = %d, want 0 (config default)", args.Workers)
	}
}

func TestParseArgsOverrides(t *testing.T) {
	args, err := ParseArgs([]string{"-listen", ":9000", "-storage", "/tmp/pl", "-headless=false", "-workers", "4"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.ListenAddr != ":9000" || args.StoragePath != "/tmp/pl" {
		t.Errorf("overrides lost: %+v", args)
	}
	if args.Headless {
		t.Error("headless override lost")
	}
	if args.Workers != 4 {
		t.Errorf("Workers = %d, want 4", args.Workers)
	}
}

func TestParseArgsRejectsEmptyListen(t *testing.T) {
	if _, err := ParseArgs([]string{"-listen", "  "}); err == nil {
		t.Error("blank listen address should be rejected")
	}
}

func TestParseArgsUnknownFlag(t *testing.T) {
	if _, err := ParseArgs([]string{"-definitely-not-a-flag"}); err == nil {
		t.Error("unknown flag should surface a parse error")
	}
}
