package proof

import (
	"regexp"
	"strconv"

	"github.com/Harshitk-cp/proofstream/internal/domain"
)

// stepNumber matches a leading "Step N" or "N." / "N)" / "N:" in a title,
// allowing markdown emphasis or heading marks before it.
var stepNumber = regexp.MustCompile(`(?i)^[\s*#_]*(?:step\s*(\d+)|(\d+)\s*[.):])`)

// Merge reconciles revised steps against current.
//
//   - Same length: revised replaces current position by position.
//   - One revised step: it replaces the step its title names ("Step 2: ...",
//     "2. ..."); with no usable number it replaces the last step.
//   - Any other length: revised is returned as is.
//
// The result never aliases either input.
func Merge(current, revised []domain.Sublemma) []domain.Sublemma {
	switch {
	case len(revised) == len(current):
		return clone(revised)
	case len(revised) == 1 && len(current) > 0:
		merged := clone(current)
		idx := len(merged) - 1
		if n, ok := TargetIndex(revised[0].Title); ok && n < len(merged) {
			idx = n
		}
		merged[idx] = revised[0]
		return merged
	}
	return clone(revised)
}

// TargetIndex returns the zero-based index named by a step title.
func TargetIndex(title string) (int, bool) {
	m := stepNumber.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	num := m[1]
	if num == "" {
		num = m[2]
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// Diff compares two step lists position by position. Unchanged positions are
// omitted. Reordering or a mid-list insertion shows up as a run of modifies.
func Diff(current, merged []domain.Sublemma) []domain.Change {
	n := max(len(current), len(merged))
	changes := []domain.Change{}
	for i := 0; i < n; i++ {
		switch {
		case i >= len(current):
			after := merged[i]
			changes = append(changes, domain.Change{Index: i, Kind: domain.ChangeAdd, After: &after})
		case i >= len(merged):
			before := current[i]
			changes = append(changes, domain.Change{Index: i, Kind: domain.ChangeRemove, Before: &before})
		default:
			before, after := current[i], merged[i]
			fields := domain.ChangedFields{
				Title:     before.Title != after.Title,
				Statement: before.Statement != after.Statement,
				Proof:     before.Proof != after.Proof,
			}
			if fields.Title || fields.Statement || fields.Proof {
				changes = append(changes, domain.Change{
					Index:  i,
					Kind:   domain.ChangeModify,
					Fields: fields,
					Before: &before,
					After:  &after,
				})
			}
		}
	}
	return changes
}

func clone(steps []domain.Sublemma) []domain.Sublemma {
	return append([]domain.Sublemma{}, steps...)
}
