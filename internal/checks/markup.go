package checks

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const parseMarkupErrorMessage = "parse page markup"

// VerifyMarkupContainsBrand checks that the rendered document carries the
// application's brand marker, either in the title or anywhere in the visible
// text.
func VerifyMarkupContainsBrand(report *Report, markup string, brandMarker string) {
	document, parseErr := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if parseErr != nil {
		report.AddFailure("%s: %v", parseMarkupErrorMessage, parseErr)
		return
	}

	pageTitle := document.Find("title").Text()
	if strings.Contains(pageTitle, brandMarker) {
		report.AddPass("page title contains brand marker %q", brandMarker)
		return
	}
	if strings.Contains(document.Text(), brandMarker) {
		report.AddPass("page text contains brand marker %q", brandMarker)
		return
	}
	report.AddFailure("page markup does not contain brand marker %q", brandMarker)
}
