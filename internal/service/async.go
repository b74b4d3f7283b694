package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
)

// asyncCore is the shared completion machinery of the three asynchronous
// engines. Each submission write flips the session to analyzing when both
// players have finished; finalize then scores and completes it.
type asyncCore struct {
	gameType model.GameType
	sessions repository.SessionRepo
	insights *InsightService
	log      *logrus.Logger

	broadcaster Broadcaster
}

func (c *asyncCore) SetBroadcaster(b Broadcaster) { c.broadcaster = b }

func (c *asyncCore) emit(userID, event string, payload interface{}) {
	if c.broadcaster != nil {
		c.broadcaster.EmitToUser(userID, event, payload)
	}
}

func (c *asyncCore) emitBoth(sess *model.Session, event string, payload interface{}) {
	c.emit(sess.Player1.UserID, event, payload)
	c.emit(sess.Player2.UserID, event, payload)
}

func (c *asyncCore) ns(event string) string {
	return c.gameType.Namespace() + ":" + event
}

// finalize scores an analyzing session and completes it. withInsights
// controls whether insight generation starts now; the voice-based engine
// defers it until transcription settles.
func (c *asyncCore) finalize(sessionID string, withInsights bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	sess, err := c.sessions.Mutate(ctx, c.gameType, sessionID, func(sess *model.Session) error {
		if sess.Status != model.StatusAnalyzing {
			return errNoChange
		}
		now := time.Now()
		sess.Results = ScoreSession(sess)
		sess.Status = model.StatusCompleted
		sess.CompletedAt = &now
		sess.Touch(now)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return
	}
	if err != nil {
		c.log.WithError(err).WithField("session_id", sessionID).Error("failed to finalize session")
		return
	}

	c.emitBoth(sess, c.ns("game_completed"), map[string]interface{}{
		"sessionId": sess.ID,
		"results":   sess.Results,
	})
	c.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"game_type":  c.gameType,
		"score":      sess.Results.CompatibilityScore,
	}).Info("session completed")

	if withInsights {
		go c.generateInsights(sess)
	}
}

func (c *asyncCore) generateInsights(sess *model.Session) {
	if !c.insights.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	insights, genErr := c.insights.GenerateGameInsights(ctx, sess)

	updated, err := c.sessions.Mutate(ctx, c.gameType, sess.ID, func(s *model.Session) error {
		if s.Results == nil {
			return errNoChange
		}
		if genErr != nil {
			s.InsightError = genErr.Error()
		} else {
			s.Results.Insights = insights
			s.InsightError = ""
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, errNoChange) {
			c.log.WithError(err).WithField("session_id", sess.ID).Error("failed to store insights")
		}
		return
	}
	if genErr != nil {
		c.log.WithError(genErr).WithField("session_id", sess.ID).Warn("insight generation failed")
		return
	}

	c.emitBoth(updated, c.ns("insights_ready"), map[string]interface{}{
		"sessionId": updated.ID,
		"insights":  insights,
	})
}
