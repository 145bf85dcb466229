package whisper

import "testing"

func TestPadOrTrimPadsShortInput(t *testing.T) {
	in := []float32{0.5, -0.5}
	got := padOrTrim(in, 5)

	if len(got) != 5 {
		t.Fatalf("expected length 5, got %d", len(got))
	}
	if got[0] != 0.5 || got[1] != -0.5 {
		t.Error("expected original samples to be preserved at the front")
	}
	for i := 2; i < 5; i++ {
		if got[i] != 0 {
			t.Errorf("expected zero padding at %d, got %f", i, got[i])
		}
	}
}

func TestPadOrTrimTrimsLongInput(t *testing.T) {
	in := []float32{1, 2, 3, 4, 5}
	got := padOrTrim(in, 3)

	if len(got) != 3 {
		t.Fatalf("expected length 3, got %d", len(got))
	}
	for i, want := range []float32{1, 2, 3} {
		if got[i] != want {
			t.Errorf("sample %d: expected %f, got %f", i, want, got[i])
		}
	}
}

func TestPadOrTrimExactLengthPassesThrough(t *testing.T) {
	in := []float32{1, 2, 3}
	got := padOrTrim(in, 3)

	if &got[0] != &in[0] {
		t.Error("expected exact-length input to pass through without copying")
	}
}
