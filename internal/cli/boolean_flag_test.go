package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestRegisterBooleanFlagParsesValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		defaultValue bool
		arguments    []string
		expected     bool
		expectError  bool
	}{
		{
			name:         "defaults_to_false",
			defaultValue: false,
			arguments:    []string{},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_true_without_value",
			defaultValue: false,
			arguments:    []string{"--feature"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "sets_false_with_equals",
			defaultValue: true,
			arguments:    []string{"--feature=false"},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_false_with_no_literal",
			defaultValue: true,
			arguments:    []string{"--feature", "no"},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_true_with_on_literal",
			defaultValue: false,
			arguments:    []string{"--feature", "on"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "ignores_non_boolean_trailing_value",
			defaultValue: false,
			arguments:    []string{"--feature", "maybe"},
			expected:     true,
			expectError:  false,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "boolean-test"}
			flagSet := command.Flags()
			flagValue := !testCase.defaultValue
			registerBooleanFlag(flagSet, &flagValue, "feature", testCase.defaultValue, "toggle feature behaviour")
			normalizedArguments := normalizeBooleanFlagArguments(command, testCase.arguments)
			parseErr := command.ParseFlags(normalizedArguments)
			if testCase.expectError {
				if parseErr == nil {
					t.Fatalf("expected parse error for arguments %v", testCase.arguments)
				}
				return
			}
			if parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			if len(testCase.arguments) == 0 && flagValue != testCase.defaultValue {
				t.Fatalf("expected default %t, got %t", testCase.defaultValue, flagValue)
			}
			if flagValue != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, flagValue)
			}
		})
	}
}

func TestNormalizeBooleanFlagArgumentsKeepsPositionalRoot(t *testing.T) {
	t.Parallel()

	command := createRootCommand(dependencies{})
	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{
			name:      "joins_boolean_literal",
			arguments: []string{"--copy", "no", "./src"},
			expected:  []string{"--copy=no", "./src"},
		},
		{
			name:      "keeps_root_after_bare_flag",
			arguments: []string{"--all-files", "./src"},
			expected:  []string{"--all-files", "./src"},
		},
		{
			name:      "ignores_non_boolean_flags",
			arguments: []string{"--format", "json", "--max-tokens", "1"},
			expected:  []string{"--format", "json", "--max-tokens", "1"},
		},
		{
			name:      "joins_subcommand_flags",
			arguments: []string{"init", "--force", "yes"},
			expected:  []string{"init", "--force=yes"},
		},
		{
			name:      "stops_at_terminator",
			arguments: []string{"--", "--copy", "yes"},
			expected:  []string{"--", "--copy", "yes"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			normalized := normalizeBooleanFlagArguments(command, testCase.arguments)
			if len(normalized) != len(testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, normalized)
			}
			for index := range normalized {
				if normalized[index] != testCase.expected[index] {
					t.Fatalf("expected %v, got %v", testCase.expected, normalized)
				}
			}
		})
	}
}

func TestRegisterBooleanFlagPSupportsShorthand(t *testing.T) {
	command := &cobra.Command{Use: "shorthand-test"}
	var verbose bool
	registerBooleanFlagP(command.Flags(), &verbose, "verbose", "v", false, "verbose output")
	if err := command.ParseFlags([]string{"-v"}); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !verbose {
		t.Fatalf("expected shorthand to enable the flag")
	}
}
