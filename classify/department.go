package classify

import (
	"strings"

	"github.com/poiesic/grievance/core"
)

// Department names.
const (
	DepartmentRoads       = "Road Maintenance Department"
	DepartmentMunicipal   = "Municipal Corporation"
	DepartmentWater       = "Water Supply and Sewerage Board"
	DepartmentElectricity = "Electricity Department"
	DepartmentGeneral     = "General Department"
)

// departments maps a lowercase issue type to its handling department.
var departments = map[string]string{
	"pothole": DepartmentRoads,

	"garbage":         DepartmentMunicipal,
	"collapsed trees": DepartmentMunicipal,
	"tree fallen":     DepartmentMunicipal,

	"sewage leak":   DepartmentWater,
	"sewage":        DepartmentWater,
	"water leakage": DepartmentWater,
	"blocked drain": DepartmentWater,

	"street light":  DepartmentElectricity,
	"electric pole": DepartmentElectricity,
	"power cut":     DepartmentElectricity,
}

// UnknownIssue is the issue type used when text analysis found none.
const UnknownIssue = "Unknown"

// DetermineDepartment returns the department responsible for an issue type.
// Matching is case-insensitive; unknown and empty issue types go to the general department.
func DetermineDepartment(issueType string) string {
	if dept, ok := departments[strings.ToLower(strings.TrimSpace(issueType))]; ok {
		return dept
	}
	return DepartmentGeneral
}

// IssueType returns the first matched issue type of an extract, or UnknownIssue.
func IssueType(extract *core.Extract) string {
	if extract == nil || len(extract.IssueType) == 0 {
		return UnknownIssue
	}
	return extract.IssueType[0]
}
