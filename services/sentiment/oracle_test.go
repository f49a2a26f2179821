package sentiment

import (
	"context"
	"errors"
	"testing"
)

func TestParseScore(t *testing.T) {
	cases := []struct {
		reply string
		want  float64
		err   bool
	}{
		{"0.8", 0.8, false},
		{"-0.35\n", -0.35, false},
		{"Score: .5", 0.5, false},
		{"1.7", 1, false},
		{"-3", -1, false},
		{"positive", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseScore(tc.reply)
		if tc.err {
			if err == nil {
				t.Errorf("%q: expected error", tc.reply)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%q: got %v, %v want %v", tc.reply, got, err, tc.want)
		}
	}
}

type failing struct{}

func (failing) Score(context.Context, string) (float64, error) {
	return 0, errors.New("quota exceeded")
}

func TestDegradingScoresNeutral(t *testing.T) {
	score, err := Degrading{Oracle: failing{}}.Score(context.Background(), "terrible")
	if err != nil || score != 0 {
		t.Fatalf("got %v, %v", score, err)
	}
}
