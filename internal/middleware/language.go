package middleware

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/templui/spacenews/internal/ctxkeys"
)

// SupportedLanguages lists the display languages in preference order. The first is the default.
var SupportedLanguages = []language.Tag{
	language.BrazilianPortuguese,
	language.English,
}

var languageMatcher = language.NewMatcher(SupportedLanguages)

// Language negotiates the display language from the lang query parameter,
// then the Accept-Language header, and stores it in the context.
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, index := language.MatchStrings(languageMatcher, r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
		tag := SupportedLanguages[index]

		w.Header().Add("Vary", "Accept-Language")
		ctx := ctxkeys.WithLanguage(r.Context(), tag)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
