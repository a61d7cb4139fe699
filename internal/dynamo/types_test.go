package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}
}

func TestConcatSplit_RoundTrip(t *testing.T) {
	parts := []State{
		{1, 2, 3, 4, 5, 6},
		{0.5, 0.5, 0.5, 0.5, 0.01, 0.02, 0.03},
		{1200},
	}

	joined := Concat(parts...)
	if len(joined) != 14 {
		t.Fatalf("expected 14 entries, got %d", len(joined))
	}

	back, err := Split(joined, []int{6, 7, 1})
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	for i := range parts {
		if len(back[i]) != len(parts[i]) {
			t.Fatalf("part %d: length %d, want %d", i, len(back[i]), len(parts[i]))
		}
		for j := range parts[i] {
			if back[i][j] != parts[i][j] {
				t.Errorf("part %d[%d] = %v, want %v", i, j, back[i][j], parts[i][j])
			}
		}
	}

	back[0][0] = 99
	if joined[0] == 99 {
		t.Error("Split did not copy")
	}
}

func TestSplit_SizeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
	}{
		{"too short", []int{2}},
		{"too long", []int{2, 2}},
		{"negative", []int{4, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(State{1, 2, 3}, tt.sizes)
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("expected ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestStepError(t *testing.T) {
	err := &StepError{Step: 3, Time: 1.5, Wrapped: ErrInvalidState}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("StepError does not unwrap")
	}
	if err.Error() != ErrInvalidState.Error() {
		t.Errorf("unexpected message %q", err.Error())
	}
}
