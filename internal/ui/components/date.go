package components

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/cases"

	"github.com/templui/spacenews/internal/ctxkeys"
)

var monthAbbr = map[string][12]string{
	"pt": {"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"},
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// FormatDate renders t as "dd mmm yyyy" in lower case, e.g. "15 mar 2021".
// A nil time renders as an empty string.
func FormatDate(ctx context.Context, t *time.Time) string {
	if t == nil {
		return ""
	}

	tag := ctxkeys.Language(ctx)
	months, ok := monthAbbr[langBase(tag)]
	if !ok {
		months = monthAbbr["pt"]
	}

	formatted := fmt.Sprintf("%02d %s %d", t.Day(), months[t.Month()-1], t.Year())
	return cases.Lower(tag).String(formatted)
}
