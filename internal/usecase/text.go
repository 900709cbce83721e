package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Package-level compiled regex patterns for performance
var (
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
	punctuationRegex    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// genericTitleWords are marketing or placeholder words that carry no search intent
var genericTitleWords = map[string]bool{
	// Placeholders
	"product": true, "produit": true, "item": true, "article": true,
	"untitled": true, "sans": true, "titre": true, "default": true,
	// Marketing noise
	"new": true, "nouveau": true, "nouvelle": true, "sale": true,
	"promo": true, "soldes": true, "best": true, "top": true,
	"offre": true, "deal": true, "hot": true,
}

// titleStopWords are ignored when counting meaningful title words
var titleStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"for": true, "with": true, "in": true, "on": true,
	"le": true, "la": true, "les": true, "un": true, "une": true, "des": true,
	"de": true, "du": true, "et": true, "en": true, "pour": true, "avec": true,
}

// PlainText strips HTML markup and collapses whitespace
func PlainText(s string) string {
	if !strings.Contains(s, "<") {
		return collapseSpaces(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpaces(s)
	}
	return collapseSpaces(doc.Text())
}

// runeLen counts characters, not bytes, so accented titles are measured fairly
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(s, " "))
}

// titleWords splits a title into lowercase words, dropping punctuation and stop words
func titleWords(title string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(title), " ")

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if titleStopWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

// isGenericTitle reports whether a title has too few meaningful words to be found in search
func isGenericTitle(title string) bool {
	words := titleWords(title)
	meaningful := 0
	for _, w := range words {
		if !genericTitleWords[w] && runeLen(w) > 1 {
			meaningful++
		}
	}
	return meaningful < 3
}
