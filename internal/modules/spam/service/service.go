package spam

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"anoa.com/forumguard/internal/model"
	contentRepo "anoa.com/forumguard/internal/modules/content/repository"
	trust "anoa.com/forumguard/internal/modules/trust/service"
	"anoa.com/forumguard/pkg/cache"
	"github.com/google/uuid"
)

// Fixed point values per triggered check. The total is pure integer math;
// spam is total >= SpamThreshold. A lone pattern hit (45) never crosses the
// line by itself.
const (
	PointsDuplicate = 60
	PointsRapid     = 55
	PointsLink      = 50
	PointsKeyword   = 50
	PointsPattern   = 45

	SpamThreshold = 50
)

const (
	duplicateLookback  = 24 * time.Hour
	duplicateSimMin    = 0.85
	rapidPostWindow    = 10 * time.Second
	patternMinLength   = 10
	capsRatioMax       = 0.70
	punctRatioMax      = 0.30
	repeatedRunLength  = 5
	minDistinctPattern = 2
)

// Per-tier URL allowances; exceeding (strictly) flags link spam.
var linkLimits = map[model.Tier]int{
	model.TierNew:     2,
	model.TierBasic:   5,
	model.TierTrusted: 10,
	model.TierVeteran: 10,
	model.TierExpert:  10,
}

type DuplicateResult struct {
	IsDuplicate bool       `json:"is_duplicate"`
	Similarity  float64    `json:"similarity"`
	MatchedID   *uuid.UUID `json:"matched_id,omitempty"`
}

type RapidResult struct {
	IsRapid          bool    `json:"is_rapid"`
	SecondsSinceLast float64 `json:"seconds_since_last"`
}

type LinkResult struct {
	IsSpam   bool `json:"is_spam"`
	URLCount int  `json:"url_count"`
}

type KeywordResult struct {
	IsSpam        bool `json:"is_spam"`
	WeightedScore int  `json:"weighted_score"`
}

type PatternResult struct {
	IsSpam        bool     `json:"is_spam"`
	PatternsFound []string `json:"patterns_found"`
}

// ScoreResult always carries all five sub-results, triggered or not, so
// moderators can audit why content passed or failed.
type ScoreResult struct {
	IsSpam     bool            `json:"is_spam"`
	TotalScore int             `json:"total_score"`
	Reasons    []string        `json:"reasons"`
	Duplicate  DuplicateResult `json:"duplicate"`
	Rapid      RapidResult     `json:"rapid_posting"`
	Links      LinkResult      `json:"link_spam"`
	Keywords   KeywordResult   `json:"keyword_spam"`
	Patterns   PatternResult   `json:"pattern_spam"`
}

type SpamService interface {
	CheckDuplicate(ctx context.Context, userID uuid.UUID, text string, kind model.ActionKind) (*DuplicateResult, error)
	CheckRapidPosting(ctx context.Context, userID uuid.UUID, kind model.ActionKind) (*RapidResult, error)
	CheckLinkSpam(ctx context.Context, userID uuid.UUID, text string) (*LinkResult, error)
	CheckKeywordSpam(text string) *KeywordResult
	CheckPatterns(text string) *PatternResult
	Score(ctx context.Context, userID uuid.UUID, text string, kind model.ActionKind) (*ScoreResult, error)
}

type spamService struct {
	contentRepo contentRepo.ContentRepository
	trust       trust.TrustService
	cache       *cache.Client
	dupCacheTTL time.Duration
}

func NewSpamService(content contentRepo.ContentRepository, trustSvc trust.TrustService, cacheClient *cache.Client, dupCacheTTL time.Duration) SpamService {
	return &spamService{
		contentRepo: content,
		trust:       trustSvc,
		cache:       cacheClient,
		dupCacheTTL: dupCacheTTL,
	}
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func dupCacheKey(userID uuid.UUID, normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("spam:dup:%s:%s", userID, hex.EncodeToString(sum[:16]))
}

// CheckDuplicate compares against the user's own active content from the
// last 24 hours. The result is cached briefly to blunt retry storms.
func (s *spamService) CheckDuplicate(ctx context.Context, userID uuid.UUID, text string, kind model.ActionKind) (*DuplicateResult, error) {
	normalized := normalize(text)
	key := dupCacheKey(userID, normalized)

	var cached DuplicateResult
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	since := time.Now().UTC().Add(-duplicateLookback)
	items, err := s.contentRepo.RecentContentByUser(ctx, userID, kind, since)
	if err != nil {
		return nil, fmt.Errorf("load recent content: %w", err)
	}

	result := DuplicateResult{}
	for _, item := range items {
		candidate := normalize(item.Content)
		if candidate == normalized {
			id := item.ID
			result = DuplicateResult{IsDuplicate: true, Similarity: 1.0, MatchedID: &id}
			break
		}
		sim := editSimilarity(normalized, candidate)
		if sim > result.Similarity {
			id := item.ID
			result.Similarity = sim
			result.MatchedID = &id
		}
	}
	if result.Similarity >= duplicateSimMin {
		result.IsDuplicate = true
	}
	if !result.IsDuplicate {
		result.MatchedID = nil
	}

	s.cache.Set(ctx, key, &result, s.dupCacheTTL)
	return &result, nil
}

// CheckRapidPosting flags new/basic users posting again within ten seconds.
// Established tiers are exempt; so is a user with no prior content.
func (s *spamService) CheckRapidPosting(ctx context.Context, userID uuid.UUID, kind model.ActionKind) (*RapidResult, error) {
	tier, err := s.trust.GetTier(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tier != model.TierNew && tier != model.TierBasic {
		return &RapidResult{}, nil
	}

	last, err := s.contentRepo.LastContentAt(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("load last content time: %w", err)
	}
	if last == nil {
		return &RapidResult{}, nil
	}

	elapsed := time.Since(*last)
	return &RapidResult{
		IsRapid:          elapsed < rapidPostWindow,
		SecondsSinceLast: elapsed.Seconds(),
	}, nil
}

func (s *spamService) CheckLinkSpam(ctx context.Context, userID uuid.UUID, text string) (*LinkResult, error) {
	tier, err := s.trust.GetTier(ctx, userID)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(text)
	count := strings.Count(lower, "http://") + strings.Count(lower, "https://")

	limit, ok := linkLimits[tier]
	if !ok {
		limit = linkLimits[model.TierNew]
	}
	return &LinkResult{IsSpam: count > limit, URLCount: count}, nil
}

func (s *spamService) CheckKeywordSpam(text string) *KeywordResult {
	lower := strings.ToLower(text)

	score := 0
	for _, kw := range commercialKeywords {
		if strings.Contains(lower, kw) {
			score += weightCommercial
		}
	}
	for _, kw := range financialKeywords {
		if strings.Contains(lower, kw) {
			score += weightFinancial
		}
	}
	for _, kw := range phishingKeywords {
		if strings.Contains(lower, kw) {
			score += weightPhishing
		}
	}

	return &KeywordResult{IsSpam: score >= keywordSpamMin, WeightedScore: score}
}

// CheckPatterns looks for shouting, punctuation walls, and repeated runs.
// A single pattern type alone never flags; short content is exempt.
func (s *spamService) CheckPatterns(text string) *PatternResult {
	result := &PatternResult{PatternsFound: []string{}}
	if utf8.RuneCountInString(text) <= patternMinLength {
		return result
	}

	var letters, upper, punct, total int
	var prev rune
	run, maxRun := 0, 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if unicode.IsPunct(r) {
			punct++
		}
		if r == prev {
			run++
		} else {
			run = 1
			prev = r
		}
		if run > maxRun {
			maxRun = run
		}
	}

	if letters > 0 && float64(upper)/float64(letters) > capsRatioMax {
		result.PatternsFound = append(result.PatternsFound, "excessive_caps")
	}
	if total > 0 && float64(punct)/float64(total) > punctRatioMax {
		result.PatternsFound = append(result.PatternsFound, "excessive_punctuation")
	}
	if maxRun >= repeatedRunLength {
		result.PatternsFound = append(result.PatternsFound, "repeated_characters")
	}

	result.IsSpam = len(result.PatternsFound) >= minDistinctPattern
	return result
}

func (s *spamService) Score(ctx context.Context, userID uuid.UUID, text string, kind model.ActionKind) (*ScoreResult, error) {
	dup, err := s.CheckDuplicate(ctx, userID, text, kind)
	if err != nil {
		return nil, err
	}
	rapid, err := s.CheckRapidPosting(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	links, err := s.CheckLinkSpam(ctx, userID, text)
	if err != nil {
		return nil, err
	}
	keywords := s.CheckKeywordSpam(text)
	patterns := s.CheckPatterns(text)

	result := &ScoreResult{
		Reasons:   []string{},
		Duplicate: *dup,
		Rapid:     *rapid,
		Links:     *links,
		Keywords:  *keywords,
		Patterns:  *patterns,
	}

	if dup.IsDuplicate {
		result.TotalScore += PointsDuplicate
		result.Reasons = append(result.Reasons, "duplicate_content")
	}
	if rapid.IsRapid {
		result.TotalScore += PointsRapid
		result.Reasons = append(result.Reasons, "rapid_posting")
	}
	if links.IsSpam {
		result.TotalScore += PointsLink
		result.Reasons = append(result.Reasons, "link_spam")
	}
	if keywords.IsSpam {
		result.TotalScore += PointsKeyword
		result.Reasons = append(result.Reasons, "keyword_spam")
	}
	if patterns.IsSpam {
		result.TotalScore += PointsPattern
		result.Reasons = append(result.Reasons, "pattern_spam")
	}

	result.IsSpam = result.TotalScore >= SpamThreshold
	return result, nil
}
