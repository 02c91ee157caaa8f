package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"enhancer/internal/domain"
)

// Character budgets per free-text sub-section. Inputs past a budget are
// truncated or rejected (caller's choice), never silently concatenated.
const (
	BudgetAddendum   = 500
	BudgetProSection = 280
	BudgetBackground = 400
	BudgetEdit       = 600
)

// Options controls composer behaviour for over-budget inputs.
type Options struct {
	// TruncateOverBudget truncates free-text sections at their budget
	// instead of rejecting the selection.
	TruncateOverBudget bool
}

// Section is one ordered instruction block of a composed prompt.
type Section struct {
	Name string
	Text string
}

// ComposedPrompt is the derived, immutable instruction payload. It is
// recomputed per request and never persisted standalone.
type ComposedPrompt struct {
	Sections []Section
	Format   FormatSpec
	// Fallbacks lists unrecognised selection values that were substituted
	// with defaults, so the caller can log the substitution.
	Fallbacks []string
}

// Text joins the ordered sections into the final instruction text.
func (p ComposedPrompt) Text() string {
	lines := make([]string, 0, len(p.Sections))
	for _, s := range p.Sections {
		lines = append(lines, s.Text)
	}
	return strings.Join(lines, "\n")
}

// Phrase interpretations for described backgrounds. Matching is by sorted
// substring lookup so the same description always produces the same text.
var backgroundPhrases = []struct {
	phrase         string
	interpretation string
}{
	{"dark slate", "a matte dark slate surface with moody light falloff"},
	{"garden", "a softly blurred outdoor garden with daylight greenery"},
	{"linen", "a neutral linen cloth with gentle natural folds"},
	{"marble", "a polished light marble slab with soft grey veining"},
	{"rustic wood", "a weathered oak tabletop with visible grain and warm tone"},
}

// Compose builds the ordered instruction payload from a style selection.
// It is pure and deterministic: no clock, no network, no hidden state.
// When edit is non-nil the overlay layers (platform, seasonal, background,
// technique, additive) are bypassed and replaced by one fixed edit template.
func Compose(sel StyleSelection, hints FormatHints, edit *EditInstruction, opts Options) (ComposedPrompt, error) {
	out := ComposedPrompt{Format: ResolveFormat(hints, sel.Platform)}

	// Base layer: never empty, even with an unset or unknown venue type.
	aesthetic, known := sel.BusinessType.Aesthetic()
	if !known {
		out.Fallbacks = append(out.Fallbacks, fmt.Sprintf("business_type=%q", sel.BusinessType))
	}
	base := fmt.Sprintf("Enhance this food photograph with a %s aesthetic.", aesthetic)
	if sel.BusinessType != BusinessUnset && known {
		// cases.Caser carries transformer state, so it cannot be shared
		// across concurrent calls.
		label := cases.Title(language.English).String(strings.ReplaceAll(string(sel.BusinessType), "_", " "))
		base = fmt.Sprintf("Enhance this %s photograph with a %s aesthetic.", label, aesthetic)
	}
	if mood, ok := sel.Mood.Direction(); ok && mood != "" {
		base += " Aim for " + mood + "."
	} else if !ok {
		out.Fallbacks = append(out.Fallbacks, fmt.Sprintf("mood=%q", sel.Mood))
	}
	out.Sections = append(out.Sections, Section{Name: "base", Text: base})

	if edit != nil {
		text, err := capText("edit_instruction", edit.Text, BudgetEdit, opts)
		if err != nil {
			return ComposedPrompt{}, err
		}
		if strings.TrimSpace(text) == "" {
			return ComposedPrompt{}, fmt.Errorf("%w: edit instruction is empty", domain.ErrInvalidSelection)
		}
		out.Sections = append(out.Sections, editSection(text, edit.Mode))
		return out, nil
	}

	// Platform/format overlay.
	if constraint, _, ok := sel.Platform.Constraint(); !ok {
		out.Fallbacks = append(out.Fallbacks, fmt.Sprintf("platform=%q", sel.Platform))
	} else if constraint != "" {
		out.Sections = append(out.Sections, Section{Name: "platform", Text: constraint})
	}
	out.Sections = append(out.Sections, Section{
		Name: "format",
		Text: fmt.Sprintf("Output aspect ratio %s at %s resolution.", out.Format.AspectRatio, out.Format.Tier),
	})

	// Seasonal overlay: accents only, subject matter preserved.
	if accents, ok := sel.Season.Accents(); !ok {
		out.Fallbacks = append(out.Fallbacks, fmt.Sprintf("season=%q", sel.Season))
	} else if accents != "" {
		out.Sections = append(out.Sections, Section{
			Name: "seasonal",
			Text: fmt.Sprintf("Add %s. Preserve the original dishes and subject matter exactly; festive accents only.", accents),
		})
	}

	// Background-mode overlay.
	if sel.Background != nil {
		section, err := backgroundSection(*sel.Background, opts)
		if err != nil {
			return ComposedPrompt{}, err
		}
		if section.Text != "" {
			out.Sections = append(out.Sections, section)
		}
	}

	// Technique overlays, composable, input order preserved.
	for _, t := range sel.Techniques {
		instr, ok := t.Instruction()
		if !ok {
			out.Fallbacks = append(out.Fallbacks, fmt.Sprintf("technique=%q", t))
			continue
		}
		out.Sections = append(out.Sections, Section{Name: "technique", Text: instr})
	}

	// Additive Pro layer: capped sub-sections appended verbatim. They may
	// override technique defaults but never the preservation constraints.
	if sel.Pro != nil {
		subs := []struct {
			name  string
			label string
			text  string
		}{
			{"pro_props", "Props and styling", sel.Pro.Props},
			{"pro_photography", "Photography notes", sel.Pro.Photography},
			{"pro_composition", "Composition notes", sel.Pro.Composition},
		}
		for _, sub := range subs {
			if strings.TrimSpace(sub.text) == "" {
				continue
			}
			text, err := capText(sub.name, sub.text, BudgetProSection, opts)
			if err != nil {
				return ComposedPrompt{}, err
			}
			out.Sections = append(out.Sections, Section{Name: sub.name, Text: sub.label + ": " + text})
		}
	}

	if strings.TrimSpace(sel.Addendum) != "" {
		text, err := capText("addendum", sel.Addendum, BudgetAddendum, opts)
		if err != nil {
			return ComposedPrompt{}, err
		}
		out.Sections = append(out.Sections, Section{Name: "addendum", Text: text})
	}

	out.Sections = append(out.Sections, Section{
		Name: "preservation",
		Text: "Keep the original subject, proportions, and plating unchanged; tonal and scene enhancements only.",
	})
	return out, nil
}

func editSection(text string, mode EditMode) Section {
	switch mode {
	case EditFlexible:
		return Section{
			Name: "edit",
			Text: fmt.Sprintf("Edit the photo as follows: %s. Cosmetic adjustments to lighting, colour, and minor styling are allowed, but the original subject and composition must remain recognisable.", text),
		}
	default:
		// Strict preservation is the safe default: anchor-and-add.
		return Section{
			Name: "edit",
			Text: fmt.Sprintf("Apply only the following change: %s. Treat the original image as an anchor and keep every existing element pixel-identical except the named additions. Do not recompose, relight, or restyle anything else.", text),
		}
	}
}

func backgroundSection(bg Background, opts Options) (Section, error) {
	switch bg.Mode {
	case BackgroundAuto, "":
		return Section{Name: "background", Text: "Choose a complementary background that suits the overall aesthetic."}, nil
	case BackgroundDescribed:
		desc, err := capText("background_description", bg.Description, BudgetBackground, opts)
		if err != nil {
			return Section{}, err
		}
		if strings.TrimSpace(desc) == "" {
			return Section{}, fmt.Errorf("%w: described background requires a description", domain.ErrInvalidSelection)
		}
		text := fmt.Sprintf("Replace the background with: %s.", desc)
		if interp := interpretBackground(desc); interp != "" {
			text += " " + interp
		}
		text += " Do not insert any text, logos, or signage unless the description explicitly requests them."
		return Section{Name: "background", Text: text}, nil
	case BackgroundReference:
		if strings.TrimSpace(bg.ReferenceRef) == "" {
			return Section{}, fmt.Errorf("%w: reference background requires an uploaded reference", domain.ErrInvalidSelection)
		}
		return Section{Name: "background", Text: fmt.Sprintf("Recreate the background from the supplied reference image (%s), matching its surface and lighting.", strings.TrimSpace(bg.ReferenceRef))}, nil
	default:
		return Section{}, fmt.Errorf("%w: unknown background mode %q", domain.ErrInvalidSelection, bg.Mode)
	}
}

func interpretBackground(desc string) string {
	lower := strings.ToLower(desc)
	for _, entry := range backgroundPhrases {
		if strings.Contains(lower, entry.phrase) {
			return fmt.Sprintf("Interpret %q as %s.", entry.phrase, entry.interpretation)
		}
	}
	return ""
}

func capText(section, text string, budget int, opts Options) (string, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= budget {
		return text, nil
	}
	if opts.TruncateOverBudget {
		return strings.TrimSpace(string([]rune(text)[:budget])), nil
	}
	return "", fmt.Errorf("%w: %s exceeds %d character budget", domain.ErrInvalidSelection, section, budget)
}
