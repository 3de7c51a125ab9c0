package support

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/cucumber/godog"

	"github.com/cardlens/cardlens/cmd/cardlens/cmd"
)

// RegisterSteps wires the step definitions into the scenario context.
func (testCtx *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an empty directory$`, testCtx.anEmptyDirectory)
	sc.Step(`^a plain text file$`, testCtx.aPlainTextFile)
	sc.Step(`^I run cardlens with arguments "([^"]*)"$`, testCtx.iRunCardlens)
	sc.Step(`^the command should succeed$`, testCtx.commandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.commandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.outputShouldContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.errorShouldMention)
}

func (testCtx *TestContext) anEmptyDirectory() error {
	dir := testCtx.TempFile("-dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	testCtx.setVar("DIR", dir)
	return nil
}

func (testCtx *TestContext) aPlainTextFile() error {
	path := testCtx.TempFile(".txt")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		return err
	}
	testCtx.TrackFile(path)
	testCtx.setVar("FILE", path)
	return nil
}

// vars holds per-scenario substitutions such as $IMAGE and $DIR.
var vars = map[string]string{}

func (testCtx *TestContext) setVar(name, value string) {
	vars[name] = value
}

func (testCtx *TestContext) expandArgs(raw string) []string {
	fields := strings.Fields(raw)
	for i, f := range fields {
		for name, value := range vars {
			f = strings.ReplaceAll(f, "$"+name, value)
		}
		fields[i] = f
	}
	return fields
}

func (testCtx *TestContext) iRunCardlens(raw string) error {
	args := testCtx.expandArgs(raw)

	root := cmd.GetRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	testCtx.LastArgs = args
	testCtx.LastError = root.Execute()
	testCtx.LastOutput = buf.String()
	return nil
}

func (testCtx *TestContext) commandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("expected success for %v, got error: %v\noutput:\n%s",
			testCtx.LastArgs, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) commandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected failure for %v, but the command succeeded\noutput:\n%s",
			testCtx.LastArgs, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) outputShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output does not contain %q:\n%s", expected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) errorShouldMention(expected string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected an error mentioning %q, but the command succeeded", expected)
	}
	if !strings.Contains(testCtx.LastError.Error(), expected) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError.Error(), expected)
	}
	return nil
}
