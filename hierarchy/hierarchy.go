// Package hierarchy derives the human-readable composite identifiers used
// across the requirement tree (projects, client requirements, epics,
// functional requirements, tasks, sprints).
//
// Every function here is pure: the same inputs always produce the same
// string, and no input is ever rejected. Degenerate names (empty, or with
// no alphabetic characters) yield empty code segments and therefore
// double-hyphen identifiers such as "PR--01". That output is tolerated on
// purpose: identifier generation must never block entity creation.
package hierarchy

import (
	"fmt"
	"strings"
)

// Segment lengths. The project code is short because it prefixes every
// identifier in the workspace; all deeper levels use three characters.
const (
	projectCodeLen = 2
	segmentLen     = 3
)

// =============================================================================
// CODE DERIVATION
// =============================================================================

// CodeFromName strips all non-alphabetic characters from name, uppercases
// the remainder, and returns the first length characters. Returns fewer
// characters if the cleaned name is shorter, and the empty string if the
// name contains no alphabetic characters at all.
func CodeFromName(name string, length int) string {
	if length <= 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
			if b.Len() == length {
				break
			}
		}
	}
	return strings.ToUpper(b.String())
}

// ProjectCode returns the explicit project code when one is set, otherwise
// a two-character code derived from the project name.
func ProjectCode(explicitCode, projectName string) string {
	if explicitCode != "" {
		return explicitCode
	}
	return CodeFromName(projectName, projectCodeLen)
}

// alphanumeric strips everything but letters and digits and uppercases the
// rest. Used only for sprint identifiers, which embed the sprint name
// verbatim instead of a fixed-length code.
func alphanumeric(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

func pad2(seq int) string {
	return fmt.Sprintf("%02d", seq)
}

// =============================================================================
// IDENTIFIER BUILDERS
// =============================================================================

// RequirementID builds the identifier for a client requirement:
// "{projectCode}-{REQ}-{NN}".
func RequirementID(projectCode, projectName, requirementName string, seq int) string {
	code := ProjectCode(projectCode, projectName)
	return code + "-" + CodeFromName(requirementName, segmentLen) + "-" + pad2(seq)
}

// EpicID builds the identifier for an epic nested under a client
// requirement: "{projectCode}-{REQ}-{EPI}-{NN}".
func EpicID(projectCode, projectName, requirementName, epicName string, seq int) string {
	code := ProjectCode(projectCode, projectName)
	return code + "-" + CodeFromName(requirementName, segmentLen) + "-" +
		CodeFromName(epicName, segmentLen) + "-" + pad2(seq)
}

// EpicIDWithoutRequirement builds the identifier for an epic attached
// directly to a project: "{projectCode}-{EPI}-{NN}".
func EpicIDWithoutRequirement(projectCode, projectName, epicName string, seq int) string {
	code := ProjectCode(projectCode, projectName)
	return code + "-" + CodeFromName(epicName, segmentLen) + "-" + pad2(seq)
}

// FRID builds the identifier for a functional requirement under an epic
// that itself sits under a client requirement:
// "{projectCode}-{REQ}-{EPI}-{FNC}-{NN}".
func FRID(projectCode, projectName, requirementName, epicName, frName string, seq int) string {
	code := ProjectCode(projectCode, projectName)
	return code + "-" + CodeFromName(requirementName, segmentLen) + "-" +
		CodeFromName(epicName, segmentLen) + "-" +
		CodeFromName(frName, segmentLen) + "-" + pad2(seq)
}

// FRIDWithoutEpic builds the identifier for a functional requirement
// attached directly to a client requirement: "{projectCode}-{REQ}-{FNC}-{NN}".
func FRIDWithoutEpic(projectCode, projectName, requirementName, frName string, seq int) string {
	code := ProjectCode(projectCode, projectName)
	return code + "-" + CodeFromName(requirementName, segmentLen) + "-" +
		CodeFromName(frName, segmentLen) + "-" + pad2(seq)
}

// TaskID builds the identifier for a task under a functional requirement.
// The caller passes the functional requirement's already-built hierarchy
// identifier; the task appends its own segment: "{frID}-{TSK}-{NN}".
func TaskID(frHierarchyID, taskName string, seq int) string {
	return frHierarchyID + "-" + CodeFromName(taskName, segmentLen) + "-" + pad2(seq)
}

// TaskIDWithoutFR builds the identifier for a task with no functional
// requirement parent: "{projectCode}-{TSK}-{NN}".
func TaskIDWithoutFR(projectCode, projectName, taskName string, seq int) string {
	code := ProjectCode(projectCode, projectName)
	return code + "-" + CodeFromName(taskName, segmentLen) + "-" + pad2(seq)
}

// SprintID builds the identifier for a sprint. Sprints carry no sequence
// number; the sanitized sprint name itself disambiguates:
// "{projectCode}-S{SPRINTNAME}".
func SprintID(projectCode, projectName, sprintName string) string {
	code := ProjectCode(projectCode, projectName)
	return code + "-S" + alphanumeric(sprintName)
}
