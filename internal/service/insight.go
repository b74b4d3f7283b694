package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/catalog"
	"github.com/entwine-app/entwine/internal/config"
	"github.com/entwine-app/entwine/internal/model"
)

const (
	geminiMaxAttempts  = 3
	geminiRetryDelay   = 2 * time.Second
	geminiMaxRespBytes = 16 << 10
)

// InsightService generates AI insights over the Gemini REST API. Failures
// never block game completion; callers record the error and move on.
type InsightService struct {
	cfg    config.AIConfig
	client *http.Client
	log    *logrus.Logger
}

func NewInsightService(cfg config.AIConfig, log *logrus.Logger) *InsightService {
	return &InsightService{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		log:    log,
	}
}

func (s *InsightService) Enabled() bool { return s.cfg.IsEnabled() }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Config   geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// callGemini posts a prompt and returns the raw JSON text of the first
// candidate. Retries transient failures (429 and 5xx) with a fixed delay;
// other 4xx responses are terminal.
func (s *InsightService) callGemini(ctx context.Context, model, prompt string) (string, error) {
	const op = "InsightService.callGemini"

	if !s.cfg.IsEnabled() {
		return "", apperr.New(apperr.CodeDependency, op, "AI insights are not configured")
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		Config:   geminiGenConfig{ResponseMIMEType: "application/json", Temperature: 0.7},
	})
	if err != nil {
		return "", apperr.E(apperr.CodeInternal, op, "failed to encode request", err)
	}

	var lastErr error
	for attempt := 1; attempt <= geminiMaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", apperr.E(apperr.CodeDependency, op, "context cancelled", ctx.Err())
			case <-time.After(geminiRetryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ModelEndpoint(model), bytes.NewReader(body))
		if err != nil {
			return "", apperr.E(apperr.CodeInternal, op, "failed to build request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", s.cfg.APIKey)

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			s.log.WithError(err).WithField("attempt", attempt).Warn("gemini request failed")
			continue
		}

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, geminiMaxRespBytes))
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var parsed geminiResponse
			if err := json.Unmarshal(data, &parsed); err != nil {
				return "", apperr.E(apperr.CodeDependency, op, "malformed gemini response", err)
			}
			if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
				return "", apperr.New(apperr.CodeDependency, op, "gemini returned no candidates")
			}
			return parsed.Candidates[0].Content.Parts[0].Text, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncate(string(data), 200))
			s.log.WithField("status", resp.StatusCode).WithField("attempt", attempt).Warn("gemini transient failure")
		default:
			return "", apperr.New(apperr.CodeDependency, op,
				fmt.Sprintf("gemini rejected the request with status %d", resp.StatusCode))
		}
	}
	return "", apperr.E(apperr.CodeDependency, op, "gemini unavailable after retries", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// cleanJSON strips markdown code fences some models wrap around JSON.
func cleanJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// GenerateGameInsights produces the per-session insight block.
func (s *InsightService) GenerateGameInsights(ctx context.Context, sess *model.Session) (*model.GameInsights, error) {
	const op = "InsightService.GenerateGameInsights"

	raw, err := s.callGemini(ctx, s.cfg.Models.GameInsights, buildGamePrompt(sess))
	if err != nil {
		return nil, err
	}

	var insights model.GameInsights
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &insights); err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "gemini returned invalid insight JSON", err)
	}
	if insights.Summary == "" {
		return nil, apperr.New(apperr.CodeDependency, op, "gemini insight missing summary")
	}
	return &insights, nil
}

// GenerateCoupleNarrative produces the cross-game narrative from an
// already-aggregated profile.
func (s *InsightService) GenerateCoupleNarrative(ctx context.Context, profile *model.CoupleCompatibility) (*model.CoupleInsights, error) {
	const op = "InsightService.GenerateCoupleNarrative"

	raw, err := s.callGemini(ctx, s.cfg.Models.CoupleNarrative, buildCouplePrompt(profile))
	if err != nil {
		return nil, err
	}

	var insights model.CoupleInsights
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &insights); err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "gemini returned invalid narrative JSON", err)
	}
	if insights.Narrative == "" || insights.ExecutiveSummary == "" {
		return nil, apperr.New(apperr.CodeDependency, op, "gemini narrative missing required fields")
	}
	if insights.LongTermPotential < 0 || insights.LongTermPotential > 100 {
		return nil, apperr.New(apperr.CodeDependency, op, "gemini narrative potential out of range")
	}
	return &insights, nil
}

func buildGamePrompt(sess *model.Session) string {
	var b strings.Builder
	b.WriteString("You are a relationship coach analyzing a couple's game session.\n")
	fmt.Fprintf(&b, "Game: %s. Players: %s and %s. Compatibility score: %d/100.\n\n",
		sess.GameType, sess.Player1.DisplayName, sess.Player2.DisplayName,
		sess.Results.CompatibilityScore)

	writeGameData(&b, sess)

	b.WriteString("\nRespond with ONLY a JSON object, no markdown, with this exact shape:\n")
	b.WriteString(`{"summary": "2-3 sentences", "strengths": ["..."], "discussionAreas": ["..."], ` +
		`"conversationStarters": ["..."], "redFlags": ["..."], "greenFlags": ["..."], "hiddenAlignments": ["..."]}` + "\n")
	b.WriteString("Keep every list to at most 5 items. Use empty arrays when nothing applies. Be warm but honest.\n")
	return b.String()
}

func writeGameData(b *strings.Builder, sess *model.Session) {
	switch sess.GameType {
	case model.GameWouldYouRather:
		for _, q := range sess.Results.Questions {
			if !q.Player1.Answered() || !q.Player2.Answered() {
				continue
			}
			cat := catalog.WYR(sess.QuestionOrder[q.Index])
			fmt.Fprintf(b, "Q%d [%s] A=%q B=%q: P1=%s P2=%s matched=%t\n",
				q.QuestionNumber, cat.Category, cat.OptionA, cat.OptionB,
				*q.Player1.Choice, *q.Player2.Choice, q.Matched)
		}
	case model.GameIntimacy:
		for _, q := range sess.Results.Questions {
			if q.Gap == nil {
				continue
			}
			cat := catalog.IS(sess.QuestionOrder[q.Index])
			fmt.Fprintf(b, "Q%d [%s] %q: P1=%d P2=%d gap=%d (%s)\n",
				q.QuestionNumber, cat.Category, cat.Prompt,
				*q.Player1.Position, *q.Player2.Position, *q.Gap, q.Alignment)
		}
	case model.GameNeverHaveIEver:
		for _, q := range sess.Results.Questions {
			if !q.Player1.Answered() || !q.Player2.Answered() {
				continue
			}
			cat := catalog.NHIE(sess.QuestionOrder[q.Index])
			fmt.Fprintf(b, "Q%d [%s] %q: P1=%t P2=%t\n",
				q.QuestionNumber, cat.Category, cat.Statement, *q.Player1.Have, *q.Player2.Have)
			if q.Player1.Story != "" {
				fmt.Fprintf(b, "  P1 story: %s\n", q.Player1.Story)
			}
			if q.Player2.Story != "" {
				fmt.Fprintf(b, "  P2 story: %s\n", q.Player2.Story)
			}
		}
	case model.GameTwoTruthsLie:
		fmt.Fprintf(b, "Correct guesses: %d of %d. Double bluffs: %d.\n",
			sess.Results.CorrectGuesses, sess.Results.GuessesMade, sess.Results.DoubleBluffs)
		for i := 0; i < model.TTLRounds; i++ {
			writeTTLRound(b, sess, i)
		}
	case model.GameWhatWouldYouDo:
		for i := 0; i < model.WWYDScenarios; i++ {
			r1, r2 := sess.WWYD.P1Responses[i], sess.WWYD.P2Responses[i]
			if r1 == nil || r2 == nil {
				continue
			}
			sc := catalog.WWYD(sess.QuestionOrder[i])
			fmt.Fprintf(b, "Scenario %d [%s]: %s\n", sc.Number, sc.Category, sc.Scenario)
			fmt.Fprintf(b, "  P1 said: %s\n", transcriptOrNote(r1))
			fmt.Fprintf(b, "  P2 said: %s\n", transcriptOrNote(r2))
		}
	case model.GameDreamBoard:
		for i := 0; i < model.BoardCategories; i++ {
			s1, s2 := sess.Board.P1Selections[i], sess.Board.P2Selections[i]
			if s1 == nil || s2 == nil {
				continue
			}
			cat := catalog.Board(i + 1)
			fmt.Fprintf(b, "%s: P1 chose %s (%s, %s), P2 chose %s (%s, %s)\n",
				cat.Title, s1.CardID, s1.Priority, s1.Timeline, s2.CardID, s2.Priority, s2.Timeline)
			writeElaboration(b, "P1", s1.Elaboration)
			writeElaboration(b, "P2", s2.Elaboration)
		}
	}
}

func writeTTLRound(b *strings.Builder, sess *model.Session, i int) {
	e1, e2 := sess.TTL.P1Entries[i], sess.TTL.P2Entries[i]
	g1, g2 := sess.TTL.P1Guesses[i], sess.TTL.P2Guesses[i]
	if e1 != nil && g2 != nil {
		fmt.Fprintf(b, "Round %d P1 statements: %v (lie #%d), P2 guessed #%d correct=%t\n",
			i+1, e1.Statements, e1.LieIndex, g2.GuessIndex, g2.Correct)
	}
	if e2 != nil && g1 != nil {
		fmt.Fprintf(b, "Round %d P2 statements: %v (lie #%d), P1 guessed #%d correct=%t\n",
			i+1, e2.Statements, e2.LieIndex, g1.GuessIndex, g1.Correct)
	}
}

func transcriptOrNote(r *model.VoiceResponse) string {
	if r.Transcript != nil && *r.Transcript != "" {
		return *r.Transcript
	}
	return "(voice answer, transcript unavailable)"
}

func writeElaboration(b *strings.Builder, who string, e *model.Elaboration) {
	if e != nil && e.Transcript != nil && *e.Transcript != "" {
		fmt.Fprintf(b, "  %s explained: %s\n", who, *e.Transcript)
	}
}

func buildCouplePrompt(profile *model.CoupleCompatibility) string {
	var b strings.Builder
	b.WriteString("You are a relationship coach writing a compatibility narrative for a couple\n")
	b.WriteString("based on the games they have played together.\n\n")

	fmt.Fprintf(&b, "Overall score: %d/100 (%s confidence, %d games).\n",
		profile.Overall.Score, profile.Overall.Confidence, profile.TotalGamesIncluded)
	for dim, ds := range profile.DimensionScores {
		if ds.Available {
			fmt.Fprintf(&b, "Dimension %s: %d/100\n", dim, ds.Score)
		}
	}
	for gt, snap := range profile.GamesSnapshot {
		if snap.Included {
			fmt.Fprintf(&b, "Game %s: %d/100. %s\n", gt, snap.Score, snap.QuickSummary)
		}
	}
	for _, ins := range profile.Strengths {
		fmt.Fprintf(&b, "Strength (%s): %s\n", ins.Dimension, ins.Text)
	}
	for _, ins := range profile.DiscussionAreas {
		fmt.Fprintf(&b, "Discussion area (%s): %s\n", ins.Dimension, ins.Text)
	}

	b.WriteString("\nRespond with ONLY a JSON object, no markdown, with this exact shape:\n")
	b.WriteString(`{"executiveSummary": "2-3 sentences", "narrative": "3-4 paragraphs", ` +
		`"longTermPotential": 0-100, "recommendations": ["..."], "verdict": "one sentence"}` + "\n")
	b.WriteString("Be specific to their data. Warm, direct, never generic.\n")
	return b.String()
}
