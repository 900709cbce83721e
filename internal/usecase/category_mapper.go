package usecase

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/feedpilot/backend/internal/domain"
)

// Category assignment sources
const (
	CategorySourcePhrase  = "phrase"
	CategorySourceKeyword = "keyword"
	CategorySourceDefault = "default"
)

// PhraseRule maps a literal phrase to a taxonomy code. A WholeWord phrase
// does not match inside a longer word ("robe" in "wardrobe").
type PhraseRule struct {
	Phrase    string
	Code      string
	WholeWord bool
}

// KeywordRule maps a taxonomy code to the keywords that imply it
type KeywordRule struct {
	Code     string
	Keywords []string
}

// CategoryMapperConfig holds the dictionaries of the category mapper.
// Rule order is significant: the first matching rule wins.
type CategoryMapperConfig struct {
	Phrases     []PhraseRule
	Keywords    []KeywordRule
	DefaultCode string
	CacheSize   int // 0 disables memoization
}

// CategoryMapper resolves free-text product types and tags to Merchant Center taxonomy codes
type CategoryMapper struct {
	phrases     []PhraseRule
	keywords    []KeywordRule
	defaultCode string
	cache       *lru.Cache[string, domain.CategoryAssignment]
}

// NewCategoryMapper creates a category mapper. The dictionaries are copied and
// lowercased so later changes to the config cannot alter the mapper.
func NewCategoryMapper(config CategoryMapperConfig) (*CategoryMapper, error) {
	if strings.TrimSpace(config.DefaultCode) == "" {
		return nil, fmt.Errorf("%w: default category code is required", domain.ErrInvalidConfig)
	}

	phrases := make([]PhraseRule, 0, len(config.Phrases))
	for i, rule := range config.Phrases {
		phrase := strings.ToLower(strings.TrimSpace(rule.Phrase))
		if phrase == "" || rule.Code == "" {
			return nil, fmt.Errorf("%w: phrase rule %d needs a phrase and a code", domain.ErrInvalidConfig, i)
		}
		phrases = append(phrases, PhraseRule{Phrase: phrase, Code: rule.Code, WholeWord: rule.WholeWord})
	}

	keywords := make([]KeywordRule, 0, len(config.Keywords))
	for i, rule := range config.Keywords {
		if rule.Code == "" || len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("%w: keyword rule %d needs a code and keywords", domain.ErrInvalidConfig, i)
		}
		kws := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("%w: keyword rule %d has an empty keyword", domain.ErrInvalidConfig, i)
			}
			kws = append(kws, kw)
		}
		keywords = append(keywords, KeywordRule{Code: rule.Code, Keywords: kws})
	}

	mapper := &CategoryMapper{
		phrases:     phrases,
		keywords:    keywords,
		defaultCode: config.DefaultCode,
	}

	if config.CacheSize > 0 {
		cache, err := lru.New[string, domain.CategoryAssignment](config.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
		mapper.cache = cache
	}

	return mapper, nil
}

// DefaultCode returns the code used when nothing matches
func (m *CategoryMapper) DefaultCode() string {
	return m.defaultCode
}

// MapCategory returns the taxonomy code for a product type and its tags
func (m *CategoryMapper) MapCategory(productType, tags string) string {
	return m.Map(productType, tags).Code
}

// Map resolves a product type and its tags to a category assignment.
// Phrases are tried first, then keyword groups, then the default code.
func (m *CategoryMapper) Map(productType, tags string) domain.CategoryAssignment {
	search := strings.TrimSpace(strings.ToLower(productType + " " + tags))
	if search == "" {
		return domain.CategoryAssignment{Code: m.defaultCode, Source: CategorySourceDefault}
	}

	if m.cache != nil {
		if cached, ok := m.cache.Get(search); ok {
			return cached
		}
	}

	assignment := m.resolve(search)

	if m.cache != nil {
		m.cache.Add(search, assignment)
	}
	return assignment
}

func (m *CategoryMapper) resolve(search string) domain.CategoryAssignment {
	for _, rule := range m.phrases {
		if rule.matches(search) {
			return domain.CategoryAssignment{Code: rule.Code, Source: CategorySourcePhrase, Match: rule.Phrase}
		}
	}

	for _, rule := range m.keywords {
		for _, kw := range rule.Keywords {
			if strings.Contains(search, kw) {
				return domain.CategoryAssignment{Code: rule.Code, Source: CategorySourceKeyword, Match: kw}
			}
		}
	}

	return domain.CategoryAssignment{Code: m.defaultCode, Source: CategorySourceDefault}
}

func (r PhraseRule) matches(search string) bool {
	if !r.WholeWord {
		return strings.Contains(search, r.Phrase)
	}
	return containsWord(search, r.Phrase)
}

// containsWord reports whether word occurs in s with no letter or digit on either side
func containsWord(s, word string) bool {
	for offset := 0; offset <= len(s)-len(word); {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
