package main

import (
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}
	full := env(map[string]string{"AI_USERNAME": "ants", "AI_PASSWORD": "secret"})

	user, pass, artifact, err := parseArgs(full, []string{"MyBot.zip"})
	if err != nil || user != "ants" || pass != "secret" || artifact != "MyBot.zip" {
		t.Fatalf("parseArgs: %q %q %q %v", user, pass, artifact, err)
	}

	cases := []struct {
		name   string
		getenv func(string) string
		args   []string
		want   string
	}{
		{"no env", env(nil), []string{"a.zip"}, "AI_USERNAME, AI_PASSWORD"},
		{"no password", env(map[string]string{"AI_USERNAME": "ants"}), []string{"a.zip"}, "AI_PASSWORD"},
		{"no artifact", full, nil, "got 0 arguments"},
		{"two artifacts", full, []string{"a.zip", "b.zip"}, "got 2 arguments"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := parseArgs(tc.getenv, tc.args)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
