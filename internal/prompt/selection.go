package prompt

import "strings"

// BusinessType enumerates the venue categories a selection may target. The
// set is closed so that style-to-aesthetic mapping stays exhaustive at
// compile time.
type BusinessType string

const (
	BusinessUnset      BusinessType = ""
	BusinessCafe       BusinessType = "cafe"
	BusinessBakery     BusinessType = "bakery"
	BusinessBistro     BusinessType = "bistro"
	BusinessFineDining BusinessType = "fine_dining"
	BusinessFastFood   BusinessType = "fast_food"
	BusinessFoodTruck  BusinessType = "food_truck"
	BusinessBar        BusinessType = "bar"
	BusinessPizzeria   BusinessType = "pizzeria"
	BusinessSushi      BusinessType = "sushi"
	BusinessSteakhouse BusinessType = "steakhouse"
)

// DefaultAesthetic is substituted for the base layer when no business type is
// selected; the base layer is never left empty.
const DefaultAesthetic = "casual, approachable"

// Aesthetic returns the visual direction for the venue type. The second
// return reports whether the type was recognised; unknown values fall back to
// the versatile default so an unrecognised id never hard-fails a request.
func (b BusinessType) Aesthetic() (string, bool) {
	switch b {
	case BusinessCafe:
		return "cozy, artisanal, warm natural light", true
	case BusinessBakery:
		return "rustic, homemade, golden and inviting", true
	case BusinessBistro:
		return "intimate, classic, softly lit", true
	case BusinessFineDining:
		return "elegant, refined, dramatic plating focus", true
	case BusinessFastFood:
		return "bold, vibrant, energetic", true
	case BusinessFoodTruck:
		return "street-style, playful, urban", true
	case BusinessBar:
		return "moody, atmospheric, low-key lighting", true
	case BusinessPizzeria:
		return "rustic Italian, wood-fired warmth", true
	case BusinessSushi:
		return "minimalist, precise, clean negative space", true
	case BusinessSteakhouse:
		return "rich, dark-toned, premium texture detail", true
	case BusinessUnset:
		return DefaultAesthetic, true
	default:
		return DefaultAesthetic, false
	}
}

// ParseBusinessType sanitises free-form input into a supported venue type.
func ParseBusinessType(s string) (BusinessType, bool) {
	v := BusinessType(strings.ToLower(strings.TrimSpace(s)))
	if v == BusinessUnset {
		return BusinessUnset, true
	}
	if _, ok := v.Aesthetic(); ok {
		return v, true
	}
	return BusinessUnset, false
}

// Platform enumerates delivery targets with format constraints.
type Platform string

const (
	PlatformUnset          Platform = ""
	PlatformInstagramFeed  Platform = "instagram_feed"
	PlatformInstagramStory Platform = "instagram_story"
	PlatformFacebook       Platform = "facebook"
	PlatformWebMenu        Platform = "web_menu"
	PlatformPrintMenu      Platform = "print_menu"
)

// Constraint returns the platform-specific instruction text and the default
// aspect ratio for the target. Unknown platforms report ok=false and are
// treated as unset by the composer.
func (p Platform) Constraint() (text, aspect string, ok bool) {
	switch p {
	case PlatformInstagramFeed:
		return "Optimise composition for an Instagram feed post; subject centred, thumb-stopping detail.", "1:1", true
	case PlatformInstagramStory:
		return "Frame vertically for an Instagram story; leave headroom for overlay UI at top and bottom.", "9:16", true
	case PlatformFacebook:
		return "Compose for a Facebook post preview; keep the subject readable at small sizes.", "4:3", true
	case PlatformWebMenu:
		return "Compose for an on-screen menu listing; even lighting, no heavy vignette.", "4:3", true
	case PlatformPrintMenu:
		return "Compose for print reproduction; high detail, avoid crushed shadows.", "3:4", true
	case PlatformUnset:
		return "", "", true
	default:
		return "", "", false
	}
}

// ParsePlatform sanitises free-form input into a supported platform.
func ParsePlatform(s string) (Platform, bool) {
	v := Platform(strings.ToLower(strings.TrimSpace(s)))
	if v == PlatformUnset {
		return PlatformUnset, true
	}
	if _, _, ok := v.Constraint(); ok {
		return v, true
	}
	return PlatformUnset, false
}

// Mood enumerates optional single-select mood accents.
type Mood string

const (
	MoodUnset    Mood = ""
	MoodBright   Mood = "bright"
	MoodMoody    Mood = "moody"
	MoodFresh    Mood = "fresh"
	MoodLuxury   Mood = "luxury"
	MoodHomely   Mood = "homely"
)

func (m Mood) Direction() (string, bool) {
	switch m {
	case MoodBright:
		return "bright, airy exposure with lifted shadows", true
	case MoodMoody:
		return "moody, directional light with deep controlled shadows", true
	case MoodFresh:
		return "fresh, crisp tones with a clean white balance", true
	case MoodLuxury:
		return "luxurious, polished finish with subtle glow", true
	case MoodHomely:
		return "homely warmth, soft and comforting tones", true
	case MoodUnset:
		return "", true
	default:
		return "", false
	}
}

// Season enumerates seasonal accent themes.
type Season string

const (
	SeasonUnset     Season = ""
	SeasonChristmas Season = "christmas"
	SeasonEaster    Season = "easter"
	SeasonHalloween Season = "halloween"
	SeasonSummer    Season = "summer"
	SeasonAutumn    Season = "autumn"
	SeasonValentine Season = "valentine"
)

func (s Season) Accents() (string, bool) {
	switch s {
	case SeasonChristmas:
		return "subtle Christmas accents such as pine sprigs, warm fairy lights, and deep red tones at the scene edges", true
	case SeasonEaster:
		return "light Easter accents such as pastel tones and small spring blossoms around the scene", true
	case SeasonHalloween:
		return "playful Halloween accents such as small pumpkins and amber candlelight at the margins", true
	case SeasonSummer:
		return "sunny summer accents such as bright daylight and fresh citrus or greenery touches", true
	case SeasonAutumn:
		return "autumn accents such as fallen leaves, chestnuts, and golden-hour warmth", true
	case SeasonValentine:
		return "gentle Valentine accents such as soft rose tones and candle glow", true
	case SeasonUnset:
		return "", true
	default:
		return "", false
	}
}

// BackgroundMode selects how the scene behind the subject is handled.
type BackgroundMode string

const (
	BackgroundAuto      BackgroundMode = "auto"
	BackgroundDescribed BackgroundMode = "described"
	BackgroundReference BackgroundMode = "reference"
)

// Background carries the background-mode choice and its inputs.
type Background struct {
	Mode         BackgroundMode
	Description  string
	ReferenceRef string
}

// Technique enumerates composable photographic techniques.
type Technique string

const (
	TechniqueMacro        Technique = "macro"
	TechniqueShallowDepth Technique = "shallow_depth"
	TechniqueOverhead     Technique = "overhead"
	TechniqueNaturalLight Technique = "natural_light"
	TechniqueBacklit      Technique = "backlit"
	TechniqueRuleOfThirds Technique = "rule_of_thirds"
)

func (t Technique) Instruction() (string, bool) {
	switch t {
	case TechniqueMacro:
		return "Use a macro perspective that emphasises fine surface texture.", true
	case TechniqueShallowDepth:
		return "Apply shallow depth of field with a softly blurred background.", true
	case TechniqueOverhead:
		return "Shoot from a top-down overhead angle with deliberate arrangement.", true
	case TechniqueNaturalLight:
		return "Light the scene as if by soft window daylight.", true
	case TechniqueBacklit:
		return "Backlight the subject for a gentle rim glow.", true
	case TechniqueRuleOfThirds:
		return "Place the subject on a rule-of-thirds intersection.", true
	default:
		return "", false
	}
}

// ProSections are the independently capped free-text additions available in
// Pro mode. They may override technique defaults but never preservation
// constraints.
type ProSections struct {
	Props       string
	Photography string
	Composition string
}

// StyleSelection is the hierarchy of user style choices feeding the composer.
// Single-select categories hold at most one value; Techniques is a set.
type StyleSelection struct {
	BusinessType BusinessType
	Platform     Platform
	Mood         Mood
	Season       Season
	Background   *Background
	Techniques   []Technique
	Pro          *ProSections
	Addendum     string
}

// EditMode selects one of the two fixed edit templates.
type EditMode string

const (
	EditStrict   EditMode = "strict"
	EditFlexible EditMode = "flexible"
)

// EditInstruction, when present, bypasses the style overlay layers entirely.
type EditInstruction struct {
	Text string
	Mode EditMode
}
