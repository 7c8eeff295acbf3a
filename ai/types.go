package ai

// IssueKeywords are the issue phrases recognized in complaint text.
// classify maps a subset of them to departments.
var IssueKeywords = []string{
	"pothole",
	"street light",
	"water leakage",
	"garbage",
	"sewage",
	"electric pole",
	"road damage",
	"power cut",
	"blocked drain",
	"tree fallen",
}

// UrgencyKeywords are the phrases that mark a complaint as time-sensitive.
var UrgencyKeywords = []string{
	"urgent",
	"immediately",
	"asap",
	"emergency",
	"it's been",
	"not working",
	"dangerous",
}
