package main

import "testing"

func TestEnvInt(t *testing.T) {
	const key = "ENV_INT_TEST_VALUE"

	cases := []struct {
		name  string
		value string
		set   bool
		want  int
	}{
		{"unset", "", false, 60},
		{"valid", "120", true, 120},
		{"malformed", "sixty", true, 60},
		{"zero", "0", true, 60},
		{"negative", "-5", true, 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.set {
				t.Setenv(key, tc.value)
			}
			if got := envInt(key, 60); got != tc.want {
				t.Fatalf("envInt(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}
