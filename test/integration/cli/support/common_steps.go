package support

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// substituteCommandVariables expands placeholders in step commands.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	replacer := strings.NewReplacer(
		"{models}", testCtx.ModelsDir,
		"{input}", testCtx.InputDir,
		"{tmp}", testCtx.TempDir,
	)
	return replacer.Replace(command)
}

// iRunCommand executes a command and stores the result.
func (testCtx *TestContext) iRunCommand(command string) error {
	return testCtx.run(strings.Fields(testCtx.substituteCommandVariables(command)), nil)
}

// iRunCommandWithText appends text as a single argument.
func (testCtx *TestContext) iRunCommandWithText(command, text string) error {
	parts := strings.Fields(testCtx.substituteCommandVariables(command))
	return testCtx.run(append(parts, text), nil)
}

// iRunCommandWithInput feeds input on stdin.
func (testCtx *TestContext) iRunCommandWithInput(command, input string) error {
	parts := strings.Fields(testCtx.substituteCommandVariables(command))
	return testCtx.run(parts, strings.NewReader(input))
}

func (testCtx *TestContext) run(parts []string, stdin io.Reader) error {
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	testCtx.LastCommand = strings.Join(parts, " ")
	testCtx.LastStartTime = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...) //nolint:gosec // G204: test commands
	cmd.Dir = testCtx.WorkingDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	// Logs go to stderr; keep them apart from results.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	} else {
		testCtx.LastExitCode = 0
	}
	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s\nStderr: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theExitCodeShouldBe verifies the exact exit code.
func (testCtx *TestContext) theExitCodeShouldBe(code int) error {
	if testCtx.LastExitCode != code {
		return fmt.Errorf("expected exit code %d, got %d\nStderr: %s", code, testCtx.LastExitCode, testCtx.LastStderr)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldNotContain verifies the output lacks specific text.
func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBe verifies the trimmed output exactly.
func (testCtx *TestContext) theOutputShouldBe(expected string) error {
	if got := strings.TrimSpace(testCtx.LastOutput); got != expected {
		return fmt.Errorf("expected output %q, got %q", expected, got)
	}
	return nil
}

// theOutputShouldHaveLines verifies the number of non-empty output lines.
func (testCtx *TestContext) theOutputShouldHaveLines(n int) error {
	lines := 0
	for _, l := range strings.Split(testCtx.LastOutput, "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}
	if lines != n {
		return fmt.Errorf("expected %d lines, got %d\nOutput: %s", n, lines, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies the output is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var js json.RawMessage
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &js); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return nil
}

// theJSONShouldContain verifies JSON contains a specific field.
func (testCtx *TestContext) theJSONShouldContain(field string) error {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return checkFieldExists(data, field)
}

func checkFieldExists(data map[string]interface{}, field string) error {
	parts := strings.Split(field, ".")
	current := data
	for i, part := range parts {
		val, exists := current[part]
		if !exists {
			return fmt.Errorf("field '%s' not found in JSON", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return nil
		}
		next, ok := val.(map[string]interface{})
		if !ok {
			return fmt.Errorf("cannot navigate deeper into non-object field '%s'", part)
		}
		current = next
	}
	return nil
}

// theOutputShouldBeValidCSV verifies the output parses as CSV.
func (testCtx *TestContext) theOutputShouldBeValidCSV() error {
	records, err := csv.NewReader(strings.NewReader(testCtx.LastOutput)).ReadAll()
	if err != nil {
		return fmt.Errorf("output is not valid CSV: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	if len(records) < 2 {
		return fmt.Errorf("expected a header and at least one row, got %d records", len(records))
	}
	return nil
}

// theErrorShouldMention verifies the error message contains specific text.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil && testCtx.LastExitCode == 0 {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}

	full := testCtx.LastOutput + " " + testCtx.LastStderr
	if !strings.Contains(strings.ToLower(full), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", errorText, full)
	}
	return nil
}

// theEnvironmentVariableIsSetTo sets an environment variable for commands.
func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.AddEnvVar(name, testCtx.substituteCommandVariables(value))
	return nil
}

// theFileShouldExist checks a file created by a command.
func (testCtx *TestContext) theFileShouldExist(path string) error {
	path = testCtx.substituteCommandVariables(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(testCtx.WorkingDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s does not exist: %w", path, err)
	}
	testCtx.LastFile = path
	return nil
}

// theFileShouldContain checks the file from the previous step.
func (testCtx *TestContext) theFileShouldContain(text string) error {
	data, err := os.ReadFile(testCtx.LastFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", testCtx.LastFile, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain '%s'\nContent: %s", testCtx.LastFile, text, data)
	}
	return nil
}

// RegisterCommonSteps registers command execution and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run "([^"]*)" with text "([^"]*)"$`, testCtx.iRunCommandWithText)
	sc.Step(`^I run "([^"]*)" with input "([^"]*)"$`, testCtx.iRunCommandWithInput)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the exit code should be (\d+)$`, testCtx.theExitCodeShouldBe)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be "([^"]*)"$`, testCtx.theOutputShouldBe)
	sc.Step(`^the output should have (\d+) lines?$`, testCtx.theOutputShouldHaveLines)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the output should be valid CSV$`, testCtx.theOutputShouldBeValidCSV)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file should contain "([^"]*)"$`, testCtx.theFileShouldContain)
}
