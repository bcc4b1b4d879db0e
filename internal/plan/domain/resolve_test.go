package domain

import "testing"

func TestResolveTag(t *testing.T) {
	cases := []struct {
		name     string
		capacity int
		cycle    string
		want     string
	}{
		{"small monthly", 15, "monthly", "starter-monthly"},
		{"large yearly", 21, "yearly", "spark-yearly"},
		{"unknown cycle falls back to monthly", 5, "bogus", "starter-monthly"},
		{"boundary stays starter", 20, "monthly", "starter-monthly"},
		{"just above boundary", 21, "monthly", "spark-monthly"},
		{"empty cycle", 10, "", "starter-monthly"},
		{"yearly is case insensitive", 30, "Yearly", "spark-yearly"},
		{"zero capacity", 0, "yearly", "starter-yearly"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveTag(tc.capacity, tc.cycle)
			if got != tc.want {
				t.Fatalf("ResolveTag(%d, %q) = %q, want %q", tc.capacity, tc.cycle, got, tc.want)
			}
		})
	}
}
