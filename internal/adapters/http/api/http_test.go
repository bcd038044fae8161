package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cvranker/internal/adapters/http/api"
	"github.com/okian/cvranker/internal/adapters/repository"
	"github.com/okian/cvranker/internal/analytics"
	service "github.com/okian/cvranker/internal/app"
	"github.com/okian/cvranker/internal/domain/model"
	"github.com/okian/cvranker/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// Mock implementations for testing
type mockExtractor struct{}

func (mockExtractor) ExtractJob(context.Context, string) (*model.JobRequirements, error) {
	return &model.JobRequirements{TechSkills: []string{"go"}}, nil
}

func (mockExtractor) ExtractCV(context.Context, string) (*model.CandidateProfile, error) {
	return &model.CandidateProfile{Name: "Candidate", TechSkills: []string{"go"}}, nil
}

type mockScorer struct {
	value float64
	gate  chan struct{} // when set, ScoreMatch blocks until closed
}

func (m *mockScorer) ScoreMatch(context.Context, *model.JobRequirements, *model.CandidateProfile) (model.Subscores, error) {
	if m.gate != nil {
		<-m.gate
	}
	sub := model.Subscore{Score: m.value}
	return model.Subscores{Education: sub, Experience: sub, TechSkills: sub, SoftSkills: sub}, nil
}

func newTestServer(t *testing.T, scorer *mockScorer) *httptest.Server {
	t.Helper()

	store := repository.NewMemStore()
	svc := service.New(
		service.WithStore(store),
		service.WithExtractor(mockExtractor{}),
		service.WithScorer(scorer),
		service.WithWorkerCount(2),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, analytics.New(store), svc).Register(context.Background(), mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func createJob(t *testing.T, base string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, base+"/jobs", map[string]string{
		"name":        "backend engineer",
		"description": "build services in go",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create job: status %d", resp.StatusCode)
	}
	return body["id"].(string)
}

func uploadCV(t *testing.T, base, jobID string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, base+"/cvs", map[string]string{
		"job_id":   jobID,
		"filename": "cv.pdf",
		"text":     "candidate text",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload cv: status %d", resp.StatusCode)
	}
	return body["id"].(string)
}

func TestJobEndpoints(t *testing.T) {
	srv := newTestServer(t, &mockScorer{value: 0.8})

	Convey("Given the API server", t, func() {
		Convey("POST /jobs creates a job with extracted requirements", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/jobs", map[string]string{
				"name":        "backend engineer",
				"description": "build services",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(body["id"], ShouldNotBeEmpty)
			So(body["extracted"], ShouldNotBeNil)
			So(body["status"], ShouldEqual, "open")
		})

		Convey("POST /jobs without a description is rejected", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/jobs", map[string]string{"name": "x"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")
		})

		Convey("GET /jobs/{id} on an unknown id is a 404", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/jobs/missing", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})

		Convey("PUT /jobs/{id} with an invalid status is rejected", func() {
			id := createJob(t, srv.URL)
			resp, _ := doJSON(t, http.MethodPut, srv.URL+"/jobs/"+id, map[string]string{"status": "paused"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("DELETE /jobs/{id} removes the job", func() {
			id := createJob(t, srv.URL)
			resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/jobs/"+id, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

			resp, _ = doJSON(t, http.MethodGet, srv.URL+"/jobs/"+id, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("POST /jobs/{id}/extract re-runs the extraction", func() {
			id := createJob(t, srv.URL)
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/jobs/"+id+"/extract", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			extraction := body["extraction"].(map[string]any)
			So(extraction["status"], ShouldEqual, "succeeded")
		})
	})
}

func TestCVEndpoints(t *testing.T) {
	srv := newTestServer(t, &mockScorer{value: 0.8})

	Convey("Given a job", t, func() {
		jobID := createJob(t, srv.URL)

		Convey("POST /cvs uploads and extracts a CV with a null score", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/cvs", map[string]string{
				"job_id":   jobID,
				"filename": "ada.pdf",
				"text":     "cv text",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(body["extracted"], ShouldNotBeNil)

			// score must encode as JSON null until a batch scores it
			score, present := body["score"]
			So(present, ShouldBeTrue)
			So(score, ShouldBeNil)
		})

		Convey("POST /cvs against an unknown job is a 404", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/cvs", map[string]string{
				"job_id":   "missing",
				"filename": "x.pdf",
				"text":     "text",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("POST /cvs/{id}/dissociate detaches the CV", func() {
			cvID := uploadCV(t, srv.URL, jobID)
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/cvs/"+cvID+"/dissociate", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			_, hasJob := body["job_id"]
			So(hasJob, ShouldBeFalse)

			resp, _ = doJSON(t, http.MethodGet, srv.URL+"/jobs/"+jobID+"/cvs", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}

func TestMatchingEndpoints(t *testing.T) {
	Convey("Given a job with CVs", t, func() {
		srv := newTestServer(t, &mockScorer{value: 0.8})
		jobID := createJob(t, srv.URL)
		uploadCV(t, srv.URL, jobID)
		uploadCV(t, srv.URL, jobID)

		Convey("POST /matchings/{jobID} scores every CV and waits", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/matchings/"+jobID, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["succeeded"], ShouldEqual, 2)
			So(body["failed"], ShouldEqual, 0)

			Convey("And a repeat run has nothing to do", func() {
				resp, body := doJSON(t, http.MethodPost, srv.URL+"/matchings/"+jobID, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["message"], ShouldEqual, "no CVs to score")
			})
		})

		Convey("POST /matchings/{jobID} for an unknown job is a 404", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/matchings/missing", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("GET /matchings/batches/{id} on an unknown id is a 404", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/matchings/batches/missing", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a slow scorer", t, func() {
		scorer := &mockScorer{value: 0.8, gate: make(chan struct{})}
		srv := newTestServer(t, scorer)
		jobID := createJob(t, srv.URL)
		uploadCV(t, srv.URL, jobID)

		Convey("When a background batch is started", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/matchings/"+jobID+"?wait=false", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
			batchID := body["batch_id"].(string)

			Convey("Then a concurrent batch for the same job conflicts", func() {
				resp, body := doJSON(t, http.MethodPost, srv.URL+"/matchings/"+jobID, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "conflict")
				close(scorer.gate)
			})

			Convey("And its status becomes completed once the work is done", func() {
				close(scorer.gate)
				So(func() string {
					deadline := time.After(2 * time.Second)
					for {
						select {
						case <-deadline:
							return "timeout"
						default:
						}
						_, body := doJSON(t, http.MethodGet, srv.URL+"/matchings/batches/"+batchID, nil)
						if state, _ := body["state"].(string); state != "running" {
							return state
						}
						time.Sleep(5 * time.Millisecond)
					}
				}(), ShouldEqual, "completed")
			})
		})
	})
}

func TestDashboardEndpoints(t *testing.T) {
	Convey("Given scored CVs across jobs", t, func() {
		srv := newTestServer(t, &mockScorer{value: 0.8})
		jobID := createJob(t, srv.URL)
		uploadCV(t, srv.URL, jobID)
		uploadCV(t, srv.URL, jobID)
		emptyJobID := createJob(t, srv.URL)

		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/matchings/"+jobID, nil)
		So(resp.StatusCode, ShouldEqual, http.StatusOK)

		Convey("GET /dashboard/count-jobs counts every job", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/dashboard/count-jobs", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["total_jobs"], ShouldEqual, 2)
		})

		Convey("GET /dashboard/cvs-per-job omits the empty job", func() {
			res, err := http.Get(srv.URL + "/dashboard/cvs-per-job")
			So(err, ShouldBeNil)
			defer res.Body.Close()
			var counts []map[string]any
			So(json.NewDecoder(res.Body).Decode(&counts), ShouldBeNil)
			So(counts, ShouldHaveLength, 1)
			So(counts[0]["job_id"], ShouldEqual, jobID)
			So(counts[0]["cvs_count"], ShouldEqual, 2)
		})

		Convey("GET /dashboard/job-average-score includes the empty job with a null average", func() {
			res, err := http.Get(srv.URL + "/dashboard/job-average-score")
			So(err, ShouldBeNil)
			defer res.Body.Close()
			var avgs []map[string]any
			So(json.NewDecoder(res.Body).Decode(&avgs), ShouldBeNil)
			So(avgs, ShouldHaveLength, 2)
			avgByJob := map[string]any{}
			countByJob := map[string]any{}
			for _, a := range avgs {
				job := a["job"].(map[string]any)
				avgByJob[job["id"].(string)] = a["average_score"]
				countByJob[job["id"].(string)] = a["cv_count_scored"]
			}
			So(avgByJob[jobID], ShouldEqual, 0.8)
			So(countByJob[jobID], ShouldEqual, 2)
			So(avgByJob[emptyJobID], ShouldBeNil)
			So(countByJob[emptyJobID], ShouldEqual, 0)
		})

		Convey("GET /dashboard/best-cv-per-job names the strongest candidate", func() {
			res, err := http.Get(srv.URL + "/dashboard/best-cv-per-job")
			So(err, ShouldBeNil)
			defer res.Body.Close()
			var best []map[string]any
			So(json.NewDecoder(res.Body).Decode(&best), ShouldBeNil)
			So(best, ShouldHaveLength, 1)
			So(best[0]["job_id"], ShouldEqual, jobID)
			bestCV := best[0]["best_cv"].(map[string]any)
			So(bestCV["score"], ShouldEqual, 0.8)
			subs := bestCV["subscores"].(map[string]any)
			So(subs["tech_skills"].(map[string]any)["score"], ShouldEqual, 0.8)
		})

		Convey("GET /dashboard/candidate-fit-radar/{jobID} breaks scores down by dimension", func() {
			res, err := http.Get(srv.URL + "/dashboard/candidate-fit-radar/" + jobID)
			So(err, ShouldBeNil)
			defer res.Body.Close()
			var entries []map[string]any
			So(json.NewDecoder(res.Body).Decode(&entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0]["tech_skills"], ShouldEqual, 0.8)
		})

		Convey("GET /dashboard/candidate-fit-radar/{jobID} rejects an unknown job", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/dashboard/candidate-fit-radar/missing", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t, &mockScorer{value: 0.5})

	Convey("Given the API server", t, func() {
		Convey("GET /stats reports service statistics", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/stats", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldEqual, true)
		})

		Convey("GET /healthz serves metrics", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
