package testfixtures

import "testing"

func TestIDGeneratorSequence(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("task")
	next := gen.NextFunc()

	if first, second := gen.Next(), next(); first != "task-1" || second != "task-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
	if gen.Issued() != 2 {
		t.Fatalf("expected 2 issued identifiers, got %d", gen.Issued())
	}
}

func TestIDGeneratorDefaults(t *testing.T) {
	t.Parallel()

	if got := NewIDGenerator("").Next(); got != "id-1" {
		t.Fatalf("expected default prefix, got %q", got)
	}

	var gen *IDGenerator
	if got := gen.NextFunc()(); got != "" {
		t.Fatalf("expected empty identifier from nil generator, got %q", got)
	}
}
