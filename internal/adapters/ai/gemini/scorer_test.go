package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/cvranker/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeGenerator replays canned responses in order.
type fakeGenerator struct {
	responses []string
	err       error
	calls     int
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.calls >= len(f.responses) {
		return "", errors.New("no more canned responses")
	}
	r := f.responses[f.calls]
	f.calls++
	return r, nil
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestScorer_ScoreMatch(t *testing.T) {
	ctx := context.Background()
	job := &model.JobRequirements{TechSkills: []string{"go"}}
	cv := &model.CandidateProfile{TechSkills: []string{"go"}}

	Convey("Given well-formed dimension responses", t, func() {
		gen := &fakeGenerator{responses: []string{
			`{"score": 0.5, "short_justification": "edu"}`,
			`{"score": 0.8, "short_justification": "exp"}`,
			"```json\n{\"score\": 1.0, \"short_justification\": \"tech\"}\n```",
			`{"score": 0.25, "short_justification": "soft"}`,
		}}
		scorer := NewScorer(gen)

		Convey("When scoring a match", func() {
			subs, err := scorer.ScoreMatch(ctx, job, cv)

			Convey("Then all four dimensions are parsed, fences included", func() {
				So(err, ShouldBeNil)
				So(subs.Education.Score, ShouldEqual, 0.5)
				So(subs.Experience.Score, ShouldEqual, 0.8)
				So(subs.TechSkills.Score, ShouldEqual, 1.0)
				So(subs.TechSkills.Justification, ShouldEqual, "tech")
				So(subs.SoftSkills.Score, ShouldEqual, 0.25)
				So(gen.calls, ShouldEqual, 4)
			})
		})
	})

	Convey("Given an out-of-range dimension score", t, func() {
		gen := &fakeGenerator{responses: repeat(`{"score": 1.4, "short_justification": "x"}`, 4)}
		scorer := NewScorer(gen)

		Convey("When scoring a match", func() {
			_, err := scorer.ScoreMatch(ctx, job, cv)

			Convey("Then the call fails as a provider error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "outside [0,1]")
			})
		})
	})

	Convey("Given a non-numeric score", t, func() {
		gen := &fakeGenerator{responses: repeat(`{"score": "high", "short_justification": "x"}`, 4)}
		scorer := NewScorer(gen)

		Convey("When scoring a match", func() {
			_, err := scorer.ScoreMatch(ctx, job, cv)

			Convey("Then the call fails rather than storing the value", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "not numeric")
			})
		})
	})

	Convey("Given a generator failure", t, func() {
		scorer := NewScorer(&fakeGenerator{err: errors.New("upstream timeout")})

		Convey("When scoring a match", func() {
			_, err := scorer.ScoreMatch(ctx, job, cv)

			Convey("Then the error is surfaced", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given missing extracted fields", t, func() {
		scorer := NewScorer(&fakeGenerator{})

		Convey("When the job has no requirements", func() {
			_, err := scorer.ScoreMatch(ctx, nil, cv)
			So(err, ShouldNotBeNil)
		})

		Convey("When the CV has no profile", func() {
			_, err := scorer.ScoreMatch(ctx, job, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestExtractor_ExtractJob(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fenced extraction response", t, func() {
		gen := &fakeGenerator{responses: []string{
			"```json\n{\"education\": [\"BSc CS\"], \"experiences\": [\"3y backend\"], \"responsibilities\": [], \"tech_skills\": [\"go\", \"postgres\"], \"soft_skills\": [\"communication\"]}\n```",
		}}
		extractor := NewExtractor(gen)

		Convey("When extracting job requirements", func() {
			req, err := extractor.ExtractJob(ctx, "some description")

			Convey("Then the structured fields are populated", func() {
				So(err, ShouldBeNil)
				So(req.Education, ShouldResemble, []string{"BSc CS"})
				So(req.TechSkills, ShouldResemble, []string{"go", "postgres"})
				So(req.Responsibilities, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a non-JSON response", t, func() {
		extractor := NewExtractor(&fakeGenerator{responses: []string{"sorry, I cannot help"}})

		Convey("When extracting job requirements", func() {
			_, err := extractor.ExtractJob(ctx, "desc")

			Convey("Then it fails as a provider error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestExtractor_ExtractCV(t *testing.T) {
	ctx := context.Background()

	Convey("Given a valid CV extraction response", t, func() {
		gen := &fakeGenerator{responses: []string{
			`{"name": "Ada Lovelace", "email": "ada@example.com", "summary": "engineer", "education": ["maths"], "experiences": ["analytical engine"], "responsibilities": [], "tech_skills": ["algorithms"], "soft_skills": [], "certificates": []}`,
		}}
		extractor := NewExtractor(gen)

		Convey("When extracting the profile", func() {
			profile, err := extractor.ExtractCV(ctx, "cv text")

			Convey("Then the candidate fields are populated", func() {
				So(err, ShouldBeNil)
				So(profile.Name, ShouldEqual, "Ada Lovelace")
				So(profile.Email, ShouldEqual, "ada@example.com")
				So(profile.TechSkills, ShouldResemble, []string{"algorithms"})
			})
		})
	})
}
