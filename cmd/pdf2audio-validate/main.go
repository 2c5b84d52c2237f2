// main package for the pdf2audio-validate command, which checks a job
// manifest against the manifest schema.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/book-expert/pdf2audio/internal/manifest"
)

// Exit codes.
const (
	exitValid       = 0
	exitViolations  = 1
	exitMissingFile = 2
)

// Flag names and descriptions.
const (
	flagSchema     = "schema"
	flagSchemaDesc = "Path to an alternative JSON schema (defaults to the built-in one)"
)

const usageMessage = "usage: pdf2audio-validate [--schema schema.json] manifest.json"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run validates the manifest named on the command line and returns the
// process exit code.
func run(args []string) int {
	flags := flag.NewFlagSet("pdf2audio-validate", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	schemaPath := flags.String(flagSchema, "", flagSchemaDesc)

	parseErr := flags.Parse(args)
	if parseErr != nil {
		return exitViolations
	}

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, usageMessage)

		return exitViolations
	}

	manifestPath := flags.Arg(0)

	violations, validateErr := manifest.ValidateFile(manifestPath, *schemaPath)
	if validateErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", validateErr)

		if errors.Is(validateErr, manifest.ErrManifestNotFound) ||
			errors.Is(validateErr, manifest.ErrSchemaUnreadable) {
			return exitMissingFile
		}

		return exitViolations
	}

	if len(violations) == 0 {
		fmt.Printf("%s is valid\n", manifestPath)

		return exitValid
	}

	for _, violation := range violations {
		fmt.Fprintf(os.Stderr, "%s: %s\n", manifestPath, violation.Error())
	}

	return exitViolations
}
