package components

import (
	"context"

	"golang.org/x/text/language"

	"github.com/templui/spacenews/internal/ctxkeys"
)

var messages = map[string]map[string]string{
	"pt": {
		"load_more":       "Carregar mais posts",
		"loading":         "Carregando...",
		"loading_hint":    "Estamos buscando este post. A página atualiza sozinha.",
		"not_found":       "Página não encontrada",
		"not_found_hint":  "O post que você procura não existe ou foi removido.",
		"error":           "Não foi possível carregar o post",
		"error_hint":      "O servidor de conteúdo não respondeu. Tente novamente em instantes.",
		"back_home":       "Voltar para o início",
		"reading_minutes": "%d min",
		"logo_alt":        "logo",
		"no_posts":        "Nenhum post publicado ainda.",
	},
	"en": {
		"load_more":       "Load more posts",
		"loading":         "Loading...",
		"loading_hint":    "We are fetching this post. The page refreshes by itself.",
		"not_found":       "Page not found",
		"not_found_hint":  "The post you are looking for does not exist or was removed.",
		"error":           "Could not load the post",
		"error_hint":      "The content server did not respond. Please try again shortly.",
		"back_home":       "Back to home",
		"reading_minutes": "%d min",
		"logo_alt":        "logo",
		"no_posts":        "No posts published yet.",
	},
}

// T returns the message for key in the request language, falling back to Portuguese.
func T(ctx context.Context, key string) string {
	if msg, ok := messages[langBase(ctxkeys.Language(ctx))][key]; ok {
		return msg
	}
	return messages["pt"][key]
}

// Lang is the BCP 47 tag for the html lang attribute.
func Lang(ctx context.Context) string {
	return ctxkeys.Language(ctx).String()
}

func langBase(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
