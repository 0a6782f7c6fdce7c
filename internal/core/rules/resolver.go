// Package rules selects the ingestion rule for a file key.
package rules

import (
	"context"
	"log/slog"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

const defaultCacheSize = 512

// RuleSource supplies the candidate rules, in declaration order.
type RuleSource interface {
	Rules(ctx context.Context) ([]entity.Rule, error)
}

// Resolver picks the most specific matching rule for a key: the matching rule
// with the longest pattern string, the earliest declared on ties.
type Resolver struct {
	source RuleSource
	cache  *lru.Cache[string, *regexp.Regexp]
	logger *slog.Logger
}

type Option func(*Resolver)

// WithCacheSize bounds the compiled-pattern cache.
func WithCacheSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.cache, _ = lru.New[string, *regexp.Regexp](n)
		}
	}
}

func NewResolver(source RuleSource, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	cache, _ := lru.New[string, *regexp.Regexp](defaultCacheSize)
	r := &Resolver{source: source, cache: cache, logger: logger}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the rule for key. Errors: Config when the source fails or a
// pattern does not compile, NoMatchingRule when nothing matches.
func (r *Resolver) Resolve(ctx context.Context, key string) (entity.Rule, error) {
	rules, err := r.source.Rules(ctx)
	if err != nil {
		r.logger.Error("rule source unavailable", "key", key, "error", err)
		return entity.Rule{}, common.ConfigError(err, "load rules")
	}

	best := -1
	for i, rule := range rules {
		re, err := r.compile(rule.Pattern)
		if err != nil {
			r.logger.Error("invalid rule pattern", "pattern", rule.Pattern, "destination", rule.Destination, "error", err)
			return entity.Rule{}, common.ConfigError(err, "invalid pattern %q", rule.Pattern)
		}
		if !re.MatchString(key) {
			continue
		}
		if best < 0 || len(rule.Pattern) > len(rules[best].Pattern) {
			best = i
		}
	}

	if best < 0 {
		r.logger.Warn("no rule matches key", "key", key, "rules", len(rules))
		return entity.Rule{}, common.NoMatchingRuleError(key)
	}
	r.logger.Debug("rule resolved", "key", key, "pattern", rules[best].Pattern, "destination", rules[best].Destination)
	return rules[best], nil
}

func (r *Resolver) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := r.cache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	r.cache.Add(pattern, re)
	return re, nil
}

// StaticSource serves a fixed rule set.
type StaticSource []entity.Rule

func (s StaticSource) Rules(context.Context) ([]entity.Rule, error) {
	return s, nil
}
