package usecase

import (
	"time"

	"github.com/feedpilot/backend/config"
	"github.com/feedpilot/backend/internal/domain"
)

// NewBatchOptimizerFromConfig assembles the validator, category mapper and
// scoring engine described by the optimizer section of the configuration.
// A nil clock defaults to time.Now.
func NewBatchOptimizerFromConfig(cfg config.OptimizerConfig, recorder domain.BatchRecorder, now func() time.Time) (*BatchOptimizer, error) {
	rules := cfg.Validation

	validator, err := NewProductValidator(ValidatorConfig{
		MinTitleLength:       rules.MinTitleLength,
		MaxTitleLength:       rules.MaxTitleLength,
		MinDescriptionLength: rules.MinDescriptionLength,
		MaxDescriptionLength: rules.MaxDescriptionLength,
		PriceMin:             rules.PriceMin,
		PriceMax:             rules.PriceMax,
	})
	if err != nil {
		return nil, err
	}

	mapper, err := NewCategoryMapper(MapperConfigFrom(cfg.Category))
	if err != nil {
		return nil, err
	}

	weights := map[string]int{
		SubscoreBaseQuality: cfg.Weights.BaseQuality,
		SubscoreMargin:      cfg.Weights.Margin,
		SubscoreRecruitment: cfg.Weights.Recruitment,
	}
	engine, err := NewScoringEngine(DefaultSubscorers(weights, QualityConfig{
		MinTitleLength:       rules.MinTitleLength,
		MaxTitleLength:       rules.MaxTitleLength,
		MinDescriptionLength: rules.MinDescriptionLength,
	})...)
	if err != nil {
		return nil, err
	}

	return NewBatchOptimizer(validator, mapper, engine, BatchOptimizerConfig{
		HighThreshold:   cfg.Tiers.High,
		MediumThreshold: cfg.Tiers.Medium,
		Now:             now,
		Recorder:        recorder,
	})
}

// MapperConfigFrom converts the category dictionaries of the configuration
func MapperConfigFrom(cfg config.CategoryConfig) CategoryMapperConfig {
	phrases := make([]PhraseRule, 0, len(cfg.Phrases))
	for _, p := range cfg.Phrases {
		phrases = append(phrases, PhraseRule{Phrase: p.Phrase, Code: p.Code, WholeWord: p.WholeWord})
	}
	keywords := make([]KeywordRule, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		keywords = append(keywords, KeywordRule{Code: k.Code, Keywords: k.Keywords})
	}
	return CategoryMapperConfig{
		Phrases:     phrases,
		Keywords:    keywords,
		DefaultCode: cfg.DefaultCode,
		CacheSize:   cfg.CacheSize,
	}
}
