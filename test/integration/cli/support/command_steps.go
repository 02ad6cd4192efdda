package support

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/notepeel/cmd/notepeel/cmd"
)

// splitCommand splits a command line on whitespace. Single quotes group words
// and \n inside quotes becomes a newline, so multi-line --text values fit in
// one step.
func splitCommand(command string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		hasWord bool
	)
	for i := 0; i < len(command); i++ {
		c := command[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			hasWord = true
		case inQuote && c == '\\' && i+1 < len(command) && command[i+1] == 'n':
			current.WriteByte('\n')
			i++
		case !inQuote && (c == ' ' || c == '\t'):
			if hasWord {
				args = append(args, current.String())
				current.Reset()
				hasWord = false
			}
		default:
			current.WriteByte(c)
			hasWord = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", command)
	}
	if hasWord {
		args = append(args, current.String())
	}
	return args, nil
}

func (testCtx *TestContext) runCommand(command, stdin string) error {
	testCtx.LastCommand = command

	args, err := splitCommand(command)
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] != "notepeel" {
		return fmt.Errorf("expected a notepeel command, got %q", command)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args[1:])

	start := time.Now()
	err = root.ExecuteContext(ctx)
	testCtx.LastDuration = time.Since(start)
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastExitCode = 0
	if err != nil {
		testCtx.LastExitCode = 1
	}
	return nil
}

func (testCtx *TestContext) iRunCommand(command string) error {
	return testCtx.runCommand(command, "")
}

func (testCtx *TestContext) iRunCommandWithInput(command string, input *godog.DocString) error {
	return testCtx.runCommand(command, input.Content+"\n")
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nStderr: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeEmpty() error {
	if testCtx.LastOutput != "" {
		return fmt.Errorf("expected no output, got: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theLogShouldContain(text string) error {
	if !strings.Contains(testCtx.LastStderr, text) {
		return fmt.Errorf("stderr does not contain '%s'\nActual stderr: %s", text, testCtx.LastStderr)
	}
	return nil
}

// theErrorShouldMention matches case-insensitively against stderr and the
// returned error.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}

	full := testCtx.LastStderr + " " + testCtx.LastError.Error()
	if !strings.Contains(strings.ToLower(full), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", errorText, full)
	}
	return nil
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	return testCtx.SetEnv(name, value)
}

func (testCtx *TestContext) theCommandShouldFinishWithin(seconds int) error {
	if limit := time.Duration(seconds) * time.Second; testCtx.LastDuration > limit {
		return fmt.Errorf("command took %v, limit %v", testCtx.LastDuration, limit)
	}
	return nil
}

var errNoCommand = errors.New("no command has been run")

func (testCtx *TestContext) lastCommandOutput() (string, error) {
	if testCtx.LastCommand == "" {
		return "", errNoCommand
	}
	return testCtx.LastOutput, nil
}

// RegisterCommandSteps registers the command execution and output steps.
func (testCtx *TestContext) RegisterCommandSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run "([^"]*)" with input:$`, testCtx.iRunCommandWithInput)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the command should finish within (\d+) seconds?$`, testCtx.theCommandShouldFinishWithin)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be empty$`, testCtx.theOutputShouldBeEmpty)
	sc.Step(`^the log should contain "([^"]*)"$`, testCtx.theLogShouldContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
