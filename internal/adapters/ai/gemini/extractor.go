package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/okian/cvranker/internal/adapters/ai"
	"github.com/okian/cvranker/internal/domain/model"
)

// contentGenerator abstracts the Gemini client so parsing can be tested
// without network access.
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Extractor implements ai.Extractor against Gemini.
type Extractor struct {
	generator contentGenerator
}

// NewExtractor creates an Extractor backed by the given generator.
func NewExtractor(generator contentGenerator) *Extractor {
	return &Extractor{generator: generator}
}

const jobExtractionPrompt = `You are an assistant that extracts structured job requirements.

Given the following job description, return a JSON object with exactly these keys:
- education: list of strings
- experiences: list of strings
- responsibilities: list of strings
- tech_skills: list of strings
- soft_skills: list of strings

Only return valid JSON, no markdown fences, no extra text.

Job description:
"""%s"""`

const cvExtractionPrompt = `You are an assistant that extracts structured candidate information from resumes.

Return a JSON object with these keys:
- name: string
- email: string
- summary: string
- education: list of strings
- experiences: list of strings
- responsibilities: list of strings
- tech_skills: list of strings
- soft_skills: list of strings
- certificates: list of strings

Only return valid JSON, no markdown fences, no extra text.

CV text:
"""%s"""`

// ExtractJob extracts structured requirements from a job description.
func (e *Extractor) ExtractJob(ctx context.Context, description string) (*model.JobRequirements, error) {
	raw, err := e.generator.GenerateContent(ctx, fmt.Sprintf(jobExtractionPrompt, description))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrProvider, err)
	}

	cleaned := stripFences(raw)
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("%w: job extraction returned invalid JSON", ai.ErrProvider)
	}

	return &model.JobRequirements{
		Education:        stringList(cleaned, "education"),
		Experiences:      stringList(cleaned, "experiences"),
		Responsibilities: stringList(cleaned, "responsibilities"),
		TechSkills:       stringList(cleaned, "tech_skills"),
		SoftSkills:       stringList(cleaned, "soft_skills"),
	}, nil
}

// ExtractCV extracts a candidate profile from raw CV text.
func (e *Extractor) ExtractCV(ctx context.Context, text string) (*model.CandidateProfile, error) {
	raw, err := e.generator.GenerateContent(ctx, fmt.Sprintf(cvExtractionPrompt, text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrProvider, err)
	}

	cleaned := stripFences(raw)
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("%w: cv extraction returned invalid JSON", ai.ErrProvider)
	}

	return &model.CandidateProfile{
		Name:             gjson.Get(cleaned, "name").String(),
		Email:            gjson.Get(cleaned, "email").String(),
		Summary:          gjson.Get(cleaned, "summary").String(),
		Education:        stringList(cleaned, "education"),
		Experiences:      stringList(cleaned, "experiences"),
		Responsibilities: stringList(cleaned, "responsibilities"),
		TechSkills:       stringList(cleaned, "tech_skills"),
		SoftSkills:       stringList(cleaned, "soft_skills"),
		Certificates:     stringList(cleaned, "certificates"),
	}, nil
}

// stripFences removes markdown code fences and a stray leading "json" tag
// that models emit despite instructions.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
			cleaned = cleaned[:idx]
		}
	}
	cleaned = strings.Trim(cleaned, "`")
	cleaned = strings.TrimSpace(cleaned)
	if strings.HasPrefix(strings.ToLower(cleaned), "json") {
		cleaned = strings.TrimSpace(cleaned[4:])
	}
	return cleaned
}

func stringList(jsonText, key string) []string {
	items := gjson.Get(jsonText, key).Array()
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := it.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
