package language

import "testing"

func TestDetectEnglish(t *testing.T) {
	t.Parallel()

	d := New()
	code, ok := d.Detect("We are looking for a software engineer to join our growing platform team in London.")
	if !ok || code != "en" {
		t.Fatalf("Detect() = %q, %v; want en", code, ok)
	}
}

func TestDetectEmpty(t *testing.T) {
	t.Parallel()

	d := New()
	if _, ok := d.Detect("   "); ok {
		t.Fatal("expected no prediction for blank text")
	}
}
