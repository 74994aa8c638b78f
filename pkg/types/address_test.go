package types

import "testing"

func TestAddressFormatSkipsBlanks(t *testing.T) {
	t.Parallel()

	addr := Address{
		Line:     "12 Nguyễn Huệ",
		Ward:     "  ",
		District: "Quận 1",
		Province: "TP. Hồ Chí Minh",
	}
	want := "12 Nguyễn Huệ, Quận 1, TP. Hồ Chí Minh"
	if got := addr.Format(); got != want {
		t.Fatalf("unexpected format %q", got)
	}

	if got := (Address{}).Format(); got != "" {
		t.Fatalf("expected empty string for empty address, got %q", got)
	}
}

func TestAddressIsComplete(t *testing.T) {
	t.Parallel()

	complete := Address{Line: "12 Nguyễn Huệ", Ward: "Bến Nghé", District: "Quận 1", Province: "TP. Hồ Chí Minh"}
	if !complete.IsComplete() {
		t.Fatal("expected complete address")
	}

	missingWard := complete
	missingWard.Ward = "   "
	if missingWard.IsComplete() {
		t.Fatal("whitespace ward must not count as present")
	}
}
