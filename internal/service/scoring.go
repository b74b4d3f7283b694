package service

import (
	"fmt"
	"math"

	"github.com/entwine-app/entwine/internal/catalog"
	"github.com/entwine-app/entwine/internal/model"
)

// Slider gap thresholds for the intimacy spectrum.
const (
	isAlignedGap = 15
	isCloseGap   = 30
)

func pct(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(100 * float64(num) / float64(den)))
}

// ScoreWYR compares choices question by question. Questions either player
// timed out on are excluded from the denominator.
func ScoreWYR(sess *model.Session) *model.GameResults {
	st := sess.Sync
	res := &model.GameResults{Questions: make([]model.QuestionOutcome, 0, len(sess.QuestionOrder))}
	byCat := map[string]*model.CategoryScore{}

	for i, qIdx := range sess.QuestionOrder {
		p1, p2 := st.P1Answers[i], st.P2Answers[i]
		q := catalog.WYR(qIdx)
		out := model.QuestionOutcome{Index: i, QuestionNumber: q.Number, Player1: p1, Player2: p2}

		if p1 != nil && p1.TimedOut {
			res.Player1TimedOut++
		}
		if p2 != nil && p2.TimedOut {
			res.Player2TimedOut++
		}
		if p1.Answered() && p2.Answered() {
			res.BothAnswered++
			out.Matched = *p1.Choice == *p2.Choice
			if out.Matched {
				res.MatchedAnswers++
			}
			cs := byCat[q.Category]
			if cs == nil {
				cs = &model.CategoryScore{Category: q.Category}
				byCat[q.Category] = cs
			}
			cs.Total++
			if out.Matched {
				cs.Matched++
			}
		}
		res.Questions = append(res.Questions, out)
	}

	for _, cs := range byCat {
		cs.Score = pct(cs.Matched, cs.Total)
		res.Categories = append(res.Categories, *cs)
	}
	res.CompatibilityScore = pct(res.MatchedAnswers, res.BothAnswered)
	res.QuickSummary = fmt.Sprintf("You matched on %d of %d questions you both answered.",
		res.MatchedAnswers, res.BothAnswered)
	return res
}

// ScoreIS scores slider positions by gap: the session score is 100 minus
// the average gap across questions both players answered.
func ScoreIS(sess *model.Session) *model.GameResults {
	st := sess.Sync
	res := &model.GameResults{Questions: make([]model.QuestionOutcome, 0, len(sess.QuestionOrder))}
	gapSum := 0

	for i, qIdx := range sess.QuestionOrder {
		p1, p2 := st.P1Answers[i], st.P2Answers[i]
		q := catalog.IS(qIdx)
		out := model.QuestionOutcome{Index: i, QuestionNumber: q.Number, Player1: p1, Player2: p2}

		if p1 != nil && p1.TimedOut {
			res.Player1TimedOut++
		}
		if p2 != nil && p2.TimedOut {
			res.Player2TimedOut++
		}
		if p1.Answered() && p2.Answered() {
			res.BothAnswered++
			gap := *p1.Position - *p2.Position
			if gap < 0 {
				gap = -gap
			}
			gapSum += gap
			g := gap
			out.Gap = &g
			switch {
			case gap <= isAlignedGap:
				out.Alignment = "aligned"
				out.Matched = true
				res.MatchedAnswers++
			case gap <= isCloseGap:
				out.Alignment = "close"
			default:
				out.Alignment = "different"
			}
		}
		res.Questions = append(res.Questions, out)
	}

	if res.BothAnswered > 0 {
		res.AverageGap = math.Round(float64(gapSum)/float64(res.BothAnswered)*10) / 10
		res.CompatibilityScore = int(math.Round(100 - res.AverageGap))
	}
	res.QuickSummary = fmt.Sprintf("Your answers landed within %d points on average.",
		int(math.Round(res.AverageGap)))
	return res
}

// ScoreNHIE treats shared experience and shared inexperience both as
// matches: score = (sharedBoth + sharedNeither) / bothAnswered.
func ScoreNHIE(sess *model.Session) *model.GameResults {
	st := sess.Sync
	res := &model.GameResults{Questions: make([]model.QuestionOutcome, 0, len(sess.QuestionOrder))}

	for i, qIdx := range sess.QuestionOrder {
		p1, p2 := st.P1Answers[i], st.P2Answers[i]
		q := catalog.NHIE(qIdx)
		out := model.QuestionOutcome{Index: i, QuestionNumber: q.Number, Player1: p1, Player2: p2}

		if p1 != nil && p1.TimedOut {
			res.Player1TimedOut++
		}
		if p2 != nil && p2.TimedOut {
			res.Player2TimedOut++
		}
		if p1.Answered() && p2.Answered() {
			res.BothAnswered++
			if *p1.Have && *p2.Have {
				res.SharedBoth++
				out.Matched = true
			} else if !*p1.Have && !*p2.Have {
				res.SharedNeither++
				out.Matched = true
			}
			if out.Matched {
				res.MatchedAnswers++
			}
		}
		res.Questions = append(res.Questions, out)
	}

	res.CompatibilityScore = pct(res.SharedBoth+res.SharedNeither, res.BothAnswered)
	res.QuickSummary = fmt.Sprintf("You shared %d experiences and %d things neither of you has done.",
		res.SharedBoth, res.SharedNeither)
	return res
}

// ScoreTTL rewards reading the partner correctly: correct guesses over
// guesses made, minus 5 points per double-bluff round (both fooled in the
// same round), floored at 0.
func ScoreTTL(sess *model.Session) *model.GameResults {
	st := sess.TTL
	res := &model.GameResults{}

	for i := 0; i < model.TTLRounds; i++ {
		g1, g2 := st.P1Guesses[i], st.P2Guesses[i]
		if g1 != nil {
			res.GuessesMade++
			if g1.Correct {
				res.CorrectGuesses++
			}
		}
		if g2 != nil {
			res.GuessesMade++
			if g2.Correct {
				res.CorrectGuesses++
			}
		}
		if g1 != nil && g2 != nil && !g1.Correct && !g2.Correct {
			res.DoubleBluffs++
		}
	}

	score := pct(res.CorrectGuesses, res.GuessesMade) - 5*res.DoubleBluffs
	if score < 0 {
		score = 0
	}
	res.CompatibilityScore = score
	res.QuickSummary = fmt.Sprintf("You spotted %d of %d lies.", res.CorrectGuesses, res.GuessesMade)
	return res
}

// scoreBoardCategory compares the two picks for one category.
//
// Same card: 100 with both priority and timeline matching, 90 with one
// axis matching, 80 with neither. Different cards: priority pairing
// decides the base (both flow 70, one flow 55, both heart_set 25, else
// 45) and a matching timeline adds 10, capped at 100.
func scoreBoardCategory(s1, s2 *model.Selection) model.CategoryAnalysis {
	ca := model.CategoryAnalysis{
		CategoryNumber: s1.CategoryNumber,
		CategoryID:     s1.CategoryID,
		SameCard:       s1.CardID == s2.CardID,
	}

	prioMatch := s1.Priority == s2.Priority
	timeMatch := s1.Timeline == s2.Timeline

	var score int
	if ca.SameCard {
		switch {
		case prioMatch && timeMatch:
			score = 100
		case prioMatch || timeMatch:
			score = 90
		default:
			score = 80
		}
	} else {
		switch {
		case s1.Priority == model.PriorityFlow && s2.Priority == model.PriorityFlow:
			score = 70
		case s1.Priority == model.PriorityFlow || s2.Priority == model.PriorityFlow:
			score = 55
		case s1.Priority == model.PriorityHeartSet && s2.Priority == model.PriorityHeartSet:
			score = 25
		default:
			score = 45
		}
		if timeMatch {
			score += 10
		}
		if score > 100 {
			score = 100
		}
	}

	ca.AlignmentScore = score
	switch {
	case score >= 80:
		ca.AlignmentLevel = "aligned"
	case score >= 50:
		ca.AlignmentLevel = "close"
	case score >= 40:
		ca.AlignmentLevel = "different"
	default:
		ca.AlignmentLevel = "needs_conversation"
	}
	return ca
}

// ScoreBoard analyzes all ten categories and averages them.
func ScoreBoard(sess *model.Session) *model.GameResults {
	st := sess.Board
	res := &model.GameResults{CategoryAnalysis: make([]model.CategoryAnalysis, 0, model.BoardCategories)}
	sum := 0

	for i := 0; i < model.BoardCategories; i++ {
		ca := scoreBoardCategory(st.P1Selections[i], st.P2Selections[i])
		sum += ca.AlignmentScore
		if ca.AlignmentLevel == "aligned" {
			res.AlignedCount++
		}
		res.CategoryAnalysis = append(res.CategoryAnalysis, ca)
	}

	res.OverallAlignment = int(math.Round(float64(sum) / float64(model.BoardCategories)))
	res.CompatibilityScore = res.OverallAlignment
	res.QuickSummary = fmt.Sprintf("You aligned on %d of %d life categories.",
		res.AlignedCount, model.BoardCategories)
	return res
}

// ScoreWWYD has no deterministic comparison, so the score reflects
// completion; the substance comes from AI insights over the transcripts.
func ScoreWWYD(sess *model.Session) *model.GameResults {
	answered := 0
	for i := 0; i < model.WWYDScenarios; i++ {
		if sess.WWYD.P1Responses[i] != nil && sess.WWYD.P2Responses[i] != nil {
			answered++
		}
	}
	res := &model.GameResults{
		BothAnswered:       answered,
		CompatibilityScore: pct(answered, model.WWYDScenarios),
		QuickSummary:       fmt.Sprintf("You both answered %d scenarios out loud.", answered),
	}
	return res
}

// ScoreSession dispatches to the engine's scorer.
func ScoreSession(sess *model.Session) *model.GameResults {
	switch sess.GameType {
	case model.GameWouldYouRather:
		return ScoreWYR(sess)
	case model.GameIntimacy:
		return ScoreIS(sess)
	case model.GameNeverHaveIEver:
		return ScoreNHIE(sess)
	case model.GameTwoTruthsLie:
		return ScoreTTL(sess)
	case model.GameWhatWouldYouDo:
		return ScoreWWYD(sess)
	case model.GameDreamBoard:
		return ScoreBoard(sess)
	}
	return &model.GameResults{}
}
