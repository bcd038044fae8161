package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cvranker/internal/adapters/ai"
	"github.com/okian/cvranker/internal/domain/model"
)

func TestClient_ExtractJob(t *testing.T) {
	Convey("Given a remote service that extracts job requirements", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/extract/job" || r.Method != http.MethodPost {
				http.NotFound(w, r)
				return
			}
			var req extractJobRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(model.JobRequirements{
				Education:  []string{"BSc"},
				TechSkills: []string{"go"},
			})
		}))
		defer srv.Close()

		client := New(srv.URL, WithTimeout(2*time.Second))

		Convey("When extracting a description", func() {
			req, err := client.ExtractJob(context.Background(), "backend engineer")

			Convey("Then the structured requirements come back", func() {
				So(err, ShouldBeNil)
				So(req.Education, ShouldResemble, []string{"BSc"})
				So(req.TechSkills, ShouldResemble, []string{"go"})
			})
		})
	})
}

func TestClient_ScoreMatch(t *testing.T) {
	job := &model.JobRequirements{TechSkills: []string{"go"}}
	cv := &model.CandidateProfile{TechSkills: []string{"go"}}

	Convey("Given a remote service returning subscores", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(model.Subscores{
				Education:  model.Subscore{Score: 0.5, Justification: "edu"},
				Experience: model.Subscore{Score: 0.6, Justification: "exp"},
				TechSkills: model.Subscore{Score: 1.0, Justification: "tech"},
				SoftSkills: model.Subscore{Score: 0.2, Justification: "soft"},
			})
		}))
		defer srv.Close()

		client := New(srv.URL)

		Convey("When scoring a match", func() {
			subs, err := client.ScoreMatch(context.Background(), job, cv)

			So(err, ShouldBeNil)
			So(subs.TechSkills.Score, ShouldEqual, 1.0)
			So(subs.Education.Justification, ShouldEqual, "edu")
		})
	})

	Convey("Given a remote service returning an out-of-range subscore", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(model.Subscores{
				TechSkills: model.Subscore{Score: 1.4},
			})
		}))
		defer srv.Close()

		client := New(srv.URL)

		Convey("When scoring a match", func() {
			_, err := client.ScoreMatch(context.Background(), job, cv)

			Convey("Then the value is rejected instead of stored", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ai.ErrProvider), ShouldBeTrue)
			})
		})
	})

	Convey("Given a remote service returning a structured error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(errorResponse{Error: "model overloaded"})
		}))
		defer srv.Close()

		client := New(srv.URL)

		Convey("When scoring a match", func() {
			_, err := client.ScoreMatch(context.Background(), job, cv)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "model overloaded")
		})
	})

	Convey("Given missing extracted fields", t, func() {
		client := New("http://unused.invalid")

		Convey("When the job requirements are nil", func() {
			_, err := client.ScoreMatch(context.Background(), nil, cv)
			So(err, ShouldNotBeNil)
		})

		Convey("When the candidate profile is nil", func() {
			_, err := client.ScoreMatch(context.Background(), job, nil)
			So(err, ShouldNotBeNil)
		})
	})
}
