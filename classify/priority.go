package classify

import (
	"strings"

	"github.com/poiesic/grievance/core"
)

var highPriorityTerms = []string{"urgent", "emergency", "dangerous"}

// DeterminePriority derives a priority from the urgency keywords found in the complaint text.
// No keywords means Normal; any keyword containing a high-priority term means High;
// any other keyword means Medium.
func DeterminePriority(urgencyKeywords []string) core.Priority {
	if len(urgencyKeywords) == 0 {
		return core.PriorityNormal
	}

	for _, term := range highPriorityTerms {
		for _, keyword := range urgencyKeywords {
			if strings.Contains(strings.ToLower(keyword), term) {
				return core.PriorityHigh
			}
		}
	}

	return core.PriorityMedium
}
