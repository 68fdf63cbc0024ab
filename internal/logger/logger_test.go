package logger

import (
	"reflect"
	"testing"

	"study-planner/internal/config"
)

func TestOutputPaths(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.LoggerConfig
		want []string
	}{
		{"default", config.LoggerConfig{}, []string{"stderr"}},
		{"stderr", config.LoggerConfig{Output: "stderr"}, []string{"stderr"}},
		{"stdout", config.LoggerConfig{Output: "stdout"}, []string{"stdout"}},
		{"file", config.LoggerConfig{Output: "file", Filename: "app.log"}, []string{"app.log"}},
		{"file without name", config.LoggerConfig{Output: "file"}, []string{"stderr"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := outputPaths(tc.cfg); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("outputPaths = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LoggerConfig{Level: "loud", Output: "stderr"}); err == nil {
		t.Fatal("expected error")
	}
}
