package chatback

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

//go:embed bundle.yaml
var bundleYAML []byte

// allScenarios is the closed set every language's template map must cover,
// checked at load time by a self-check applied to the i18n
// bundle as well as the LLM schemas.
var allScenarios = []models.Scenario{
	models.ScenarioExactMatch, models.ScenarioLowConfidence, models.ScenarioMissingQuery,
	models.ScenarioMissingLocation, models.ScenarioZeroNearbyExists, models.ScenarioZeroDifferentCity,
	models.ScenarioFewClosingSoon, models.ScenarioFewAllClosed, models.ScenarioManyAllClosed,
	models.ScenarioClarifyNeeded, models.ScenarioRepeatUnsuccessful,
}

var allLanguages = []models.Language{
	models.LangEnglish, models.LangHebrew, models.LangArabic,
	models.LangRussian, models.LangFrench, models.LangSpanish,
}

type rawBundle struct {
	Forbidden map[models.Language][]string              `yaml:"forbidden"`
	Templates map[models.Language]map[models.Scenario]string `yaml:"templates"`
}

var bundle rawBundle

func init() {
	if err := yaml.Unmarshal(bundleYAML, &bundle); err != nil {
		panic(fmt.Sprintf("chatback: malformed bundle.yaml: %v", err))
	}
	if err := validateBundle(bundle); err != nil {
		panic(fmt.Sprintf("chatback: %v", err))
	}
}

// validateBundle enforces that every supported language has both a
// forbidden-phrase list and a template for every scenario, catching bundle
// drift at process start rather than at first response.
func validateBundle(b rawBundle) error {
	for _, lang := range allLanguages {
		if len(b.Forbidden[lang]) == 0 {
			return fmt.Errorf("language %q has no forbidden-phrase list", lang)
		}
		templates, ok := b.Templates[lang]
		if !ok {
			return fmt.Errorf("language %q has no templates", lang)
		}
		for _, scenario := range allScenarios {
			if _, ok := templates[scenario]; !ok {
				return fmt.Errorf("language %q is missing template for scenario %q", lang, scenario)
			}
		}
	}
	return nil
}

// ForbiddenHit returns the first forbidden phrase found in msg for lang, or
// "" if none match. Falls back to the English list for unsupported languages.
func ForbiddenHit(msg string, lang models.Language) string {
	list, ok := bundle.Forbidden[lang]
	if !ok {
		list = bundle.Forbidden[models.LangEnglish]
	}
	lower := strings.ToLower(msg)
	for _, phrase := range list {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return phrase
		}
	}
	return ""
}

// Render fills a scenario's template for lang with args, falling back to
// English when lang has no template set.
func Render(lang models.Language, scenario models.Scenario, args ...any) string {
	set, ok := bundle.Templates[lang]
	if !ok {
		set = bundle.Templates[models.LangEnglish]
	}
	tmpl, ok := set[scenario]
	if !ok {
		tmpl = bundle.Templates[models.LangEnglish][models.ScenarioClarifyNeeded]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
