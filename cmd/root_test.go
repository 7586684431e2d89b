/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"bytes"
	"testing"
	"time"
)

func TestRootCmd_PersistentFlags(t *testing.T) {
	tests := []struct {
		name         string
		flagName     string
		defaultValue interface{}
		flagType     string
	}{
		{
			name:         "db flag has correct default",
			flagName:     "db",
			defaultValue: "coffee.db",
			flagType:     "string",
		},
		{
			name:         "config flag is empty by default",
			flagName:     "config",
			defaultValue: "",
			flagType:     "string",
		},
		{
			name:         "base-url flag points at the archive",
			flagName:     "base-url",
			defaultValue: "https://cgi.astronomy.osu.edu/Coffee/Archive/",
			flagType:     "string",
		},
		{
			name:         "timeout flag has correct default",
			flagName:     "timeout",
			defaultValue: 10 * time.Second,
			flagType:     "duration",
		},
		{
			name:         "index-timeout flag has correct default",
			flagName:     "index-timeout",
			defaultValue: 30 * time.Second,
			flagType:     "duration",
		},
		{
			name:         "pace flag has correct default",
			flagName:     "pace",
			defaultValue: time.Second,
			flagType:     "duration",
		},
		{
			name:         "render flag is off by default",
			flagName:     "render",
			defaultValue: false,
			flagType:     "bool",
		},
		{
			name:         "metrics-file flag is empty by default",
			flagName:     "metrics-file",
			defaultValue: "",
			flagType:     "string",
		},
		{
			name:         "debug flag is off by default",
			flagName:     "debug",
			defaultValue: false,
			flagType:     "bool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flag interface{}
			var err error

			flags := rootCmd.PersistentFlags()
			switch tt.flagType {
			case "string":
				flag, err = flags.GetString(tt.flagName)
			case "bool":
				flag, err = flags.GetBool(tt.flagName)
			case "duration":
				flag, err = flags.GetDuration(tt.flagName)
			}

			if err != nil {
				t.Fatalf("Failed to get flag %s: %v", tt.flagName, err)
			}

			if flag != tt.defaultValue {
				t.Errorf("Flag %s: got %v, want %v", tt.flagName, flag, tt.defaultValue)
			}
		})
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	want := []string{"scrape-date", "scrape-back", "scrape-month", "show"}
	for _, name := range want {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Use == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected %s subcommand to be registered", name)
		}
	}
}

func TestRootCmd_UsageOutput(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)

	// Test that usage doesn't error
	err := rootCmd.Usage()
	if err != nil {
		t.Errorf("Usage() returned error: %v", err)
	}

	output := buf.String()
	if output == "" {
		t.Error("Expected usage output, got empty string")
	}
}

func TestRootCmd_CommandMetadata(t *testing.T) {
	if rootCmd.Use != "coffee" {
		t.Errorf("Expected Use to be 'coffee', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}
}

func TestRootCmd_DBFlagHasNoShorthand(t *testing.T) {
	// -d belongs to --date on scrape-date and show.
	flag := rootCmd.PersistentFlags().Lookup("db")
	if flag == nil {
		t.Fatal("Expected --db flag")
	}
	if flag.Shorthand != "" {
		t.Errorf("Expected --db to have no shorthand, got -%s", flag.Shorthand)
	}
}
