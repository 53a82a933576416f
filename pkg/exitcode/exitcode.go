// Package exitcode provides semantic exit codes for CI/CD integration.
//
// Exit codes:
//   - 0: run completed, grade B or better
//   - 1: run completed with findings (grade C or worse)
//   - 3: invalid configuration
//   - 4: target unreachable or unspawnable
//   - 5: run interrupted
package exitcode

// Code is a semantic process exit code.
type Code int

const (
	// Success indicates a clean run with no significant findings.
	Success Code = 0
	// IssuesFound indicates the run completed and found problems.
	IssuesFound Code = 1
	// Configuration indicates invalid configuration was provided.
	Configuration Code = 3
	// Target indicates the target could not be reached or spawned.
	Target Code = 4
	// Interrupted indicates the run was cancelled by user or signal.
	Interrupted Code = 5
)

var codeStrings = map[Code]string{
	Success:       "success",
	IssuesFound:   "issues_found",
	Configuration: "invalid_configuration",
	Target:        "target_unreachable",
	Interrupted:   "run_interrupted",
}

// String returns the short name of the code.
func (c Code) String() string {
	if s, ok := codeStrings[c]; ok {
		return s
	}
	return "unknown"
}

// Int returns the code as a process exit status.
func (c Code) Int() int { return int(c) }

// ForGrade maps a letter grade to the exit code CI pipelines gate on.
func ForGrade(letter string) Code {
	switch letter {
	case "A", "B":
		return Success
	default:
		return IssuesFound
	}
}
