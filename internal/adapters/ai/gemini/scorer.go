package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/okian/cvranker/internal/adapters/ai"
	"github.com/okian/cvranker/internal/domain/model"
	"github.com/okian/cvranker/internal/domain/scoring"
)

// Scorer implements ai.Scorer against Gemini with one prompt per match
// dimension, each returning {score, short_justification}.
type Scorer struct {
	generator contentGenerator
}

// NewScorer creates a Scorer backed by the given generator.
func NewScorer(generator contentGenerator) *Scorer {
	return &Scorer{generator: generator}
}

const scorePromptTemplate = `You are an assistant that calculates how well a candidate's CV %s match a job's required %s.
Your task is to return a JSON with a single numeric score between 0 and 1, where:
- 1 means the CV fully satisfies or exceeds all job requirements.
- 0 means no match at all.

Rules:
- Treat each job requirement as a separate condition and average the subscores.
- If the job lists no requirements for this dimension, return score 1.
- Give partial credit for related or semantically close items.
- Always return the SAME score for the same input (no randomness).

Return JSON only, no markdown fences, no extra text. Format:
{ "score": 0.xx , "short_justification": string }

Job required %s: %s
CV %s: %s`

// ScoreMatch scores all four dimensions. A malformed or out-of-range value
// for any dimension fails the whole call; the orchestrator records that as
// a per-CV failure and stores nothing.
func (s *Scorer) ScoreMatch(ctx context.Context, job *model.JobRequirements, cv *model.CandidateProfile) (model.Subscores, error) {
	if job == nil {
		return model.Subscores{}, fmt.Errorf("%w: job requirements not extracted", ai.ErrProvider)
	}
	if cv == nil {
		return model.Subscores{}, fmt.Errorf("%w: candidate profile not extracted", ai.ErrProvider)
	}

	var subs model.Subscores
	var err error

	if subs.Education, err = s.scoreDimension(ctx, "education", job.Education, cv.Education); err != nil {
		return model.Subscores{}, err
	}
	if subs.Experience, err = s.scoreDimension(ctx, "experiences", job.Experiences, cv.Experiences); err != nil {
		return model.Subscores{}, err
	}
	if subs.TechSkills, err = s.scoreDimension(ctx, "technical skills", job.TechSkills, cv.TechSkills); err != nil {
		return model.Subscores{}, err
	}
	if subs.SoftSkills, err = s.scoreDimension(ctx, "soft skills", job.SoftSkills, cv.SoftSkills); err != nil {
		return model.Subscores{}, err
	}

	return subs, nil
}

func (s *Scorer) scoreDimension(ctx context.Context, dimension string, required, offered []string) (model.Subscore, error) {
	prompt := fmt.Sprintf(scorePromptTemplate,
		dimension, dimension,
		dimension, formatList(required),
		dimension, formatList(offered),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return model.Subscore{}, fmt.Errorf("%w: %s: %w", ai.ErrProvider, dimension, err)
	}

	return parseSubscore(raw, dimension)
}

// parseSubscore parses one {score, short_justification} response and enforces
// the numeric range policy: a non-numeric or out-of-range score is a provider
// failure, never stored verbatim.
func parseSubscore(raw, dimension string) (model.Subscore, error) {
	cleaned := stripFences(raw)
	if !gjson.Valid(cleaned) {
		return model.Subscore{}, fmt.Errorf("%w: %s: response is not valid JSON", ai.ErrProvider, dimension)
	}

	scoreField := gjson.Get(cleaned, "score")
	if scoreField.Type != gjson.Number {
		return model.Subscore{}, fmt.Errorf("%w: %s: score %q is not numeric", ai.ErrProvider, dimension, scoreField.Raw)
	}

	value := scoreField.Float()
	if err := scoring.ValidateUnit(value); err != nil {
		return model.Subscore{}, fmt.Errorf("%w: %s: %w", ai.ErrProvider, dimension, err)
	}

	return model.Subscore{
		Score:         value,
		Justification: gjson.Get(cleaned, "short_justification").String(),
	}, nil
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	return "[" + strings.Join(items, "; ") + "]"
}
