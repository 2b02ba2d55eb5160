package chatback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

func TestValidateBundle_LoadedBundlePasses(t *testing.T) {
	assert.NoError(t, validateBundle(bundle))
}

func TestValidateBundle_MissingScenarioIsRejected(t *testing.T) {
	broken := rawBundle{
		Forbidden: map[models.Language][]string{
			models.LangEnglish: {"no results"},
			models.LangHebrew:  {"לא נמצא"},
			models.LangArabic:  {"لا توجد نتائج"},
			models.LangRussian: {"нет результатов"},
			models.LangFrench:  {"aucun résultat"},
			models.LangSpanish: {"sin resultados"},
		},
		Templates: map[models.Language]map[models.Scenario]string{
			models.LangEnglish: {models.ScenarioExactMatch: "ok"},
			models.LangHebrew:  {models.ScenarioExactMatch: "ok"},
			models.LangArabic:  {models.ScenarioExactMatch: "ok"},
			models.LangRussian: {models.ScenarioExactMatch: "ok"},
			models.LangFrench:  {models.ScenarioExactMatch: "ok"},
			models.LangSpanish: {models.ScenarioExactMatch: "ok"},
		},
	}
	assert.Error(t, validateBundle(broken))
}

func TestForbiddenHit_AcrossLanguages(t *testing.T) {
	cases := map[models.Language]string{
		models.LangEnglish: "no results for that",
		models.LangHebrew:  "לא נמצא כלום",
		models.LangArabic:  "لا توجد نتائج هنا",
		models.LangRussian: "нет результатов сейчас",
		models.LangFrench:  "aucun résultat ici",
		models.LangSpanish: "sin resultados aquí",
	}
	for lang, text := range cases {
		assert.NotEmpty(t, ForbiddenHit(text, lang), "lang=%s", lang)
	}
}

func TestForbiddenHit_CleanMessagePasses(t *testing.T) {
	assert.Empty(t, ForbiddenHit("Found 5 places nearby.", models.LangEnglish))
}
