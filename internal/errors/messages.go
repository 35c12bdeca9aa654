package errors

import (
	"fmt"
	"strings"
)

// Common error messages for the changelog2html CLI.
// These templates ensure consistent, actionable error messages.

const renderUsage = "changelog2html render <template> <fragments-dir>"

// MissingRenderArguments creates an error for a render call without both paths.
func MissingRenderArguments(got int) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("render needs a template and a fragments folder (got %d argument(s))", got),
		renderUsage,
		"Example: changelog2html render changelog.html.tmpl changes/",
		"Use '-' as the template for json, yaml or markdown output or the built-in HTML page",
	)
}

// TemplateNotFound creates an error for a missing template file.
func TemplateNotFound(path string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("template %s does not exist", path),
		renderUsage,
		"Check the template path, relative to the current directory",
		"Use '-' to render with the built-in template",
	)
}

// TemplateIsDirectory creates an error for a template path naming a folder.
func TemplateIsDirectory(path string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("template %s is a directory", path),
		renderUsage,
		"Pass the template file, not the folder that contains it",
	)
}

// TemplateInvalid creates an error for a template that does not parse.
func TemplateInvalid(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("template %s could not be parsed", path),
		"Check the template for unbalanced {{ }} actions",
		"Available functions: date, isoDate, title",
	)
}

// FragmentsDirNotFound creates an error for a missing fragments folder.
func FragmentsDirNotFound(path string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("fragments folder %s does not exist", path),
		renderUsage,
		"Check the folder path, relative to the current directory",
	)
}

// FragmentsPathIsFile creates an error for a fragments path naming a file.
func FragmentsPathIsFile(path string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("fragments path %s is a file, not a folder", path),
		renderUsage,
		"Pass the folder that holds the <id>.<type>.<ext> fragment files",
	)
}

// RepositoryNotFound creates an error for a fragments folder outside any repository.
func RepositoryNotFound(path string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		fmt.Sprintf("no git repository found for %s", path),
		"Run changelog2html inside a git working tree",
		"Or point at the repository with --repo <dir>",
		"Raise max_discovery_depth if the folder is deeply nested",
	)
}

// FragmentsOutsideRepository creates an error for a fragments folder outside --repo.
func FragmentsOutsideRepository(path, root string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("fragments folder %s is not inside repository %s", path, root),
		"Pass a fragments folder inside the repository",
		"Or drop --repo to discover the repository from the fragments folder",
	)
}

// ConfigFileNotFound creates an error for a missing --config file.
func ConfigFileNotFound(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file not found: %s", path),
		"Check the path passed to --config",
		"Run 'changelog2html config init' to create a project config",
	)
}

// ConfigParseError creates an error for an invalid configuration.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to load config %s", path),
		"Check the YAML syntax and values",
		"Run 'changelog2html config show' to see the effective configuration",
	)
}

// InvalidFormat creates an error for an unknown --format value.
func InvalidFormat(format string, valid []string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("unknown output format %q", format),
		fmt.Sprintf("Valid formats: %s", strings.Join(valid, ", ")),
	)
}

// InvalidFlagCombination creates an error for incompatible flags.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
	)
}

// FileNotWritable creates an error when the output file cannot be written.
func FileNotWritable(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot write %s", path),
		"Check that the parent directory exists and is writable",
	)
}

// FragmentsSkipped creates the --strict error listing every skipped tag and fragment.
func FragmentsSkipped(problems []error) *CLIError {
	details := make([]string, len(problems))
	for i, p := range problems {
		details[i] = p.Error()
	}
	return NewRuntimeError(
		fmt.Sprintf("%d problem(s) found while building the changelog", len(problems)),
		"Rename fragments to <id>.<type>.<ext>",
		"Fix or delete tags that do not point at a commit",
		"Drop --strict to render anyway",
	).WithDetails(details...)
}
