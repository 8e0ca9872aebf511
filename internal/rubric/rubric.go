// package rubric defines the rubric value model used by the assessment
// engine and resolves human-readable option selections against it.
package rubric

import (
	"fmt"

	"github.com/oa-labs/group-assessment-service/internal/apperrors"
)

type Option struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type Criterion struct {
	Name    string   `json:"name"`
	Prompt  string   `json:"prompt,omitempty"`
	Options []Option `json:"options"`
}

type Rubric struct {
	Criteria []Criterion `json:"criteria"`
}

// Selection is a resolved criterion/option pair, ready to be persisted as
// an assessment part.
type Selection struct {
	CriterionName string
	OptionName    string
	Points        int
}

// Validate checks structural soundness: at least one criterion, at least
// one option per criterion, no duplicate names.
func (r Rubric) Validate() error {
	if len(r.Criteria) == 0 {
		return fmt.Errorf("rubric has no criteria")
	}

	seenCriteria := make(map[string]struct{}, len(r.Criteria))

	for _, c := range r.Criteria {
		if c.Name == "" {
			return fmt.Errorf("rubric criterion with empty name")
		}

		if _, ok := seenCriteria[c.Name]; ok {
			return fmt.Errorf("duplicate rubric criterion '%s'", c.Name)
		}
		seenCriteria[c.Name] = struct{}{}

		if len(c.Options) == 0 {
			return fmt.Errorf("rubric criterion '%s' has no options", c.Name)
		}

		seenOptions := make(map[string]struct{}, len(c.Options))
		for _, o := range c.Options {
			if _, ok := seenOptions[o.Name]; ok {
				return fmt.Errorf("duplicate option '%s' in criterion '%s'", o.Name, c.Name)
			}
			seenOptions[o.Name] = struct{}{}
		}
	}

	return nil
}

// ResolveSelections maps criterion→option name selections onto the rubric.
// Every rubric criterion must have exactly one selected option; unknown
// criterion or option names fail with apperrors.ErrInvalidRubricSelection.
// The multi-select case cannot arise: the input is a map keyed by
// criterion name.
func (r Rubric) ResolveSelections(selected map[string]string) ([]Selection, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidRubricSelection, err)
	}

	criteria := make(map[string]Criterion, len(r.Criteria))
	for _, c := range r.Criteria {
		criteria[c.Name] = c
	}

	for name := range selected {
		if _, ok := criteria[name]; !ok {
			return nil, &apperrors.InvalidRubricSelectionError{Criterion: name}
		}
	}

	// Iterate the rubric's criterion order so persisted parts are stable.
	selections := make([]Selection, 0, len(r.Criteria))

	for _, c := range r.Criteria {
		optionName, ok := selected[c.Name]
		if !ok {
			return nil, &apperrors.InvalidRubricSelectionError{Criterion: c.Name}
		}

		option, ok := findOption(c, optionName)
		if !ok {
			return nil, &apperrors.InvalidRubricSelectionError{Criterion: c.Name, Option: optionName}
		}

		selections = append(selections, Selection{
			CriterionName: c.Name,
			OptionName:    option.Name,
			Points:        option.Points,
		})
	}

	return selections, nil
}

func findOption(c Criterion, name string) (Option, bool) {
	for _, o := range c.Options {
		if o.Name == name {
			return o, true
		}
	}

	return Option{}, false
}
