package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/cache"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
)

// Aggregator builds and serves the cross-game compatibility profile. Only
// the latest finished session per game type counts; regeneration races are
// resolved by the profile row's version check.
type Aggregator struct {
	sessions repository.SessionRepo
	profiles repository.CompatRepo
	matches  *MatchService
	insights *InsightService
	cache    cache.DashboardCache
	log      *logrus.Logger
}

func NewAggregator(
	sessions repository.SessionRepo,
	profiles repository.CompatRepo,
	matches *MatchService,
	insights *InsightService,
	dashCache cache.DashboardCache,
	log *logrus.Logger,
) *Aggregator {
	return &Aggregator{
		sessions: sessions,
		profiles: profiles,
		matches:  matches,
		insights: insights,
		cache:    dashCache,
		log:      log,
	}
}

// latestFinished collects the newest finished session per game type.
func (a *Aggregator) latestFinished(ctx context.Context, pairKey string) (map[model.GameType]*model.Session, error) {
	latest := make(map[model.GameType]*model.Session)
	for _, gt := range model.AllGameTypes {
		sess, err := a.sessions.LatestFinished(ctx, gt, pairKey)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			latest[gt] = sess
		}
	}
	return latest, nil
}

// detectUpdates compares live sessions against the stored snapshot.
func detectUpdates(profile *model.CoupleCompatibility, latest map[model.GameType]*model.Session) (bool, []model.GameType) {
	var newGames []model.GameType
	for gt, sess := range latest {
		snap, ok := profile.GamesSnapshot[gt]
		if !ok || !snap.Included || snap.SessionID != sess.ID {
			newGames = append(newGames, gt)
		}
	}
	sort.Slice(newGames, func(i, j int) bool { return newGames[i] < newGames[j] })
	return len(newGames) > 0, newGames
}

// GetDashboard returns the stored profile plus live update detection. A
// couple with no profile yet gets an empty dashboard listing their played
// games as pending updates.
func (a *Aggregator) GetDashboard(ctx context.Context, matchID, callerID string) (*model.Dashboard, error) {
	const op = "Aggregator.GetDashboard"

	couple, err := a.matches.Resolve(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}

	profile, err := a.profiles.Get(ctx, couple.PairKey)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "profile lookup failed", err)
	}
	latest, err := a.latestFinished(ctx, couple.PairKey)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "session scan failed", err)
	}

	d := &model.Dashboard{Compatibility: profile}
	if profile == nil {
		for gt := range latest {
			d.NewGames = append(d.NewGames, gt)
		}
		sort.Slice(d.NewGames, func(i, j int) bool { return d.NewGames[i] < d.NewGames[j] })
		d.UpdateAvailable = len(d.NewGames) > 0
	} else {
		d.UpdateAvailable, d.NewGames = detectUpdates(profile, latest)
	}

	included := 0
	if profile != nil {
		included = profile.TotalGamesIncluded
	}
	if n := len(latest); n > included {
		included = n
	}
	if included < model.MinGamesForNarrative {
		d.GamesNeededForAI = model.MinGamesForNarrative
	}

	if err := a.cache.Set(ctx, couple.PairKey, d); err != nil {
		a.log.WithError(err).Warn("dashboard cache write failed")
	}
	return d, nil
}

// QuickStatus is the polling endpoint's read: served from cache when
// fresh, falling back to a full dashboard build.
func (a *Aggregator) QuickStatus(ctx context.Context, matchID, callerID string) (*model.Dashboard, error) {
	couple, err := a.matches.Resolve(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}

	cached, err := a.cache.Get(ctx, couple.PairKey)
	if err != nil {
		a.log.WithError(err).Warn("dashboard cache read failed")
	}
	if cached != nil {
		return cached, nil
	}
	return a.GetDashboard(ctx, matchID, callerID)
}

// Generate rebuilds the profile from the latest finished sessions. The
// deterministic parts always land; the AI narrative requires at least
// three games and its failure is absorbed.
func (a *Aggregator) Generate(ctx context.Context, matchID, callerID string) (*model.CoupleCompatibility, error) {
	const op = "Aggregator.Generate"

	couple, err := a.matches.Resolve(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}

	prev, err := a.profiles.Get(ctx, couple.PairKey)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "profile lookup failed", err)
	}
	latest, err := a.latestFinished(ctx, couple.PairKey)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "session scan failed", err)
	}
	if len(latest) == 0 {
		return nil, apperr.New(apperr.CodeConflict, op, "no finished games to aggregate")
	}

	var expectedVersion int64
	if prev != nil {
		expectedVersion = prev.Version
	}

	profile := a.build(couple, latest)

	if profile.TotalGamesIncluded >= model.MinGamesForNarrative && a.insights.Enabled() {
		narrative, err := a.insights.GenerateCoupleNarrative(ctx, profile)
		if err != nil {
			a.log.WithError(err).WithField("pair_key", couple.PairKey).Warn("couple narrative generation failed")
		} else {
			profile.AIInsights = narrative
		}
	}

	if err := a.profiles.Save(ctx, profile, expectedVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// Concurrent generates collapse to one effective run: the
			// loser hands back the winner's row.
			winner, getErr := a.profiles.Get(ctx, couple.PairKey)
			if getErr == nil && winner != nil {
				return winner, nil
			}
			return nil, apperr.New(apperr.CodeConcurrency, op, "another update is in progress, try again")
		}
		return nil, apperr.E(apperr.CodeDependency, op, "profile save failed", err)
	}

	if err := a.cache.Invalidate(ctx, couple.PairKey); err != nil {
		a.log.WithError(err).Warn("dashboard cache invalidation failed")
	}

	a.log.WithFields(logrus.Fields{
		"pair_key": couple.PairKey,
		"games":    profile.TotalGamesIncluded,
		"score":    profile.Overall.Score,
	}).Info("compatibility profile generated")
	return profile, nil
}

// build assembles the deterministic profile from the included sessions.
func (a *Aggregator) build(couple *model.Couple, latest map[model.GameType]*model.Session) *model.CoupleCompatibility {
	profile := &model.CoupleCompatibility{
		PairKey:         couple.PairKey,
		MatchID:         couple.MatchID,
		UserA:           couple.UserA,
		UserB:           couple.UserB,
		DimensionScores: make(map[model.Dimension]model.DimensionScore),
		GamesSnapshot:   make(map[model.GameType]model.GameSnapshot),
		LastGeneratedAt: time.Now(),
	}

	sum := 0
	for _, gt := range model.AllGameTypes {
		sess, ok := latest[gt]
		if !ok || sess.Results == nil {
			profile.GamesSnapshot[gt] = model.GameSnapshot{Included: false}
			profile.DimensionScores[gt.Dimension()] = model.DimensionScore{Available: false}
			continue
		}
		score := sess.Results.CompatibilityScore
		profile.GamesSnapshot[gt] = model.GameSnapshot{
			Included:     true,
			SessionID:    sess.ID,
			CompletedAt:  sess.CompletedAt,
			Score:        score,
			QuickSummary: sess.Results.QuickSummary,
		}
		profile.DimensionScores[gt.Dimension()] = model.DimensionScore{Score: score, Available: true}
		profile.TotalGamesIncluded++
		sum += score

		a.collectInsights(profile, gt, sess)
	}

	if profile.TotalGamesIncluded > 0 {
		profile.Overall.Score = int(math.Round(float64(sum) / float64(profile.TotalGamesIncluded)))
	}
	profile.Overall.Confidence = model.ConfidenceFor(profile.TotalGamesIncluded)
	profile.Overall.Level = model.OverallLevel(profile.Overall.Score)

	truncateProfileLists(profile)
	return profile
}

// collectInsights folds one session's insight lists into the profile with
// dimension tags. Per-game AI output is reused here verbatim, so the
// deterministic aggregation stays reproducible.
func (a *Aggregator) collectInsights(profile *model.CoupleCompatibility, gt model.GameType, sess *model.Session) {
	dim := gt.Dimension()
	score := sess.Results.CompatibilityScore

	if score >= 70 {
		profile.Strengths = append(profile.Strengths, model.Insight{
			Dimension: dim,
			GameType:  gt,
			Text:      fmt.Sprintf("Strong %s alignment (%d/100): %s", dim, score, sess.Results.QuickSummary),
		})
	} else if score < 60 {
		significance := "notable"
		if score < 40 {
			significance = "significant"
		}
		profile.DiscussionAreas = append(profile.DiscussionAreas, model.Insight{
			Dimension:    dim,
			GameType:     gt,
			Text:         fmt.Sprintf("The %s dimension scored %d/100 and deserves a conversation.", dim, score),
			Significance: significance,
		})
	}

	if ins := sess.Results.Insights; ins != nil {
		for _, st := range ins.Strengths {
			profile.Strengths = append(profile.Strengths, model.Insight{Dimension: dim, GameType: gt, Text: st})
		}
		for _, da := range ins.DiscussionAreas {
			profile.DiscussionAreas = append(profile.DiscussionAreas, model.Insight{
				Dimension: dim, GameType: gt, Text: da, Significance: "notable",
			})
		}
		profile.ConversationStarters = append(profile.ConversationStarters, ins.ConversationStarters...)
		profile.RedFlags = append(profile.RedFlags, ins.RedFlags...)
		profile.HiddenAlignments = append(profile.HiddenAlignments, ins.HiddenAlignments...)
	}
}

func truncateProfileLists(p *model.CoupleCompatibility) {
	if len(p.Strengths) > model.MaxStrengths {
		p.Strengths = p.Strengths[:model.MaxStrengths]
	}
	if len(p.DiscussionAreas) > model.MaxDiscussionAreas {
		p.DiscussionAreas = p.DiscussionAreas[:model.MaxDiscussionAreas]
	}
	if len(p.ConversationStarters) > model.MaxConversationStarters {
		p.ConversationStarters = p.ConversationStarters[:model.MaxConversationStarters]
	}
	if len(p.RedFlags) > model.MaxRedFlags {
		p.RedFlags = p.RedFlags[:model.MaxRedFlags]
	}
	if len(p.HiddenAlignments) > model.MaxHiddenAlignments {
		p.HiddenAlignments = p.HiddenAlignments[:model.MaxHiddenAlignments]
	}
}

// GameHistory summarizes the couple's standing per game type.
func (a *Aggregator) GameHistory(ctx context.Context, matchID, callerID string) ([]model.GameHistoryEntry, error) {
	const op = "Aggregator.GameHistory"

	couple, err := a.matches.Resolve(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}

	profile, err := a.profiles.Get(ctx, couple.PairKey)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "profile lookup failed", err)
	}

	entries := make([]model.GameHistoryEntry, 0, len(model.AllGameTypes))
	for _, gt := range model.AllGameTypes {
		entry := model.GameHistoryEntry{GameType: gt}

		sess, err := a.sessions.LatestFinished(ctx, gt, couple.PairKey)
		if err != nil {
			return nil, apperr.E(apperr.CodeDependency, op, "session scan failed", err)
		}
		count, err := a.sessions.CountFinished(ctx, gt, couple.PairKey)
		if err != nil {
			return nil, apperr.E(apperr.CodeDependency, op, "session count failed", err)
		}
		entry.PlayCount = int(count)

		if sess != nil {
			entry.Completed = true
			entry.CompletedAt = sess.CompletedAt
			entry.SessionID = sess.ID
			if profile != nil {
				snap, ok := profile.GamesSnapshot[gt]
				entry.IncludedInCompatibility = ok && snap.Included && snap.SessionID == sess.ID
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GameDetails returns the full results of the session backing one game's
// contribution to the profile.
func (a *Aggregator) GameDetails(ctx context.Context, matchID, callerID string, gt model.GameType) (*model.Session, error) {
	const op = "Aggregator.GameDetails"

	couple, err := a.matches.Resolve(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}

	sess, err := a.sessions.LatestFinished(ctx, gt, couple.PairKey)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "session lookup failed", err)
	}
	if sess == nil {
		return nil, apperr.New(apperr.CodeNotFound, op, "no finished session for this game")
	}
	return sess, nil
}
