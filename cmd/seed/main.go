// Command seed populates a running instance with sample jobs and CVs,
// triggers scoring for each job, and prints the dashboard aggregates.
// Useful for manual testing against a local server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultJobs      = 3
	defaultCVsPerJob = 5
	defaultTimeout   = 2 * time.Minute
)

var sampleJobs = []struct {
	name        string
	description string
}{
	{"Backend Engineer", "Design and build Go services with PostgreSQL, gRPC and Kubernetes. 3+ years of backend experience required."},
	{"Frontend Engineer", "Build React applications with TypeScript. Experience with accessibility and design systems is a plus."},
	{"Data Engineer", "Own batch and streaming pipelines with Python, Spark and Airflow. SQL fluency required."},
	{"Platform Engineer", "Operate CI/CD, Terraform and AWS infrastructure for a growing engineering org."},
}

var sampleCVs = []string{
	"Experienced Go developer. 5 years building microservices, PostgreSQL, Docker, Kubernetes. BSc Computer Science.",
	"Full-stack engineer, React and Node.js, some Go. 3 years at a startup. Strong communication skills.",
	"Data analyst moving into engineering. Python, Pandas, SQL. MSc Statistics. Airflow side projects.",
	"Site reliability engineer. Terraform, AWS, on-call ownership, incident response. CKA certified.",
	"Junior developer, bootcamp graduate. JavaScript, eager to learn, team player.",
	"Senior engineer, 10 years. Java and Go, distributed systems, mentoring. PhD dropout, many conference talks.",
}

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numJobs   = flag.Int("jobs", defaultJobs, "Number of jobs to create")
		cvsPerJob = flag.Int("cvs", defaultCVsPerJob, "Number of CVs to upload per job")
		timeout   = flag.Duration("timeout", defaultTimeout, "Overall timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *baseURL, *numJobs, *cvsPerJob); err != nil {
		os.Stderr.WriteString("seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, baseURL string, numJobs, cvsPerJob int) error {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")

	jobIDs := make([]string, 0, numJobs)
	for i := 0; i < numJobs; i++ {
		sample := sampleJobs[i%len(sampleJobs)]
		var job struct {
			ID string `json:"id"`
		}
		resp, err := client.R().
			SetContext(ctx).
			SetBody(map[string]string{
				"name":        fmt.Sprintf("%s #%d", sample.name, i+1),
				"description": sample.description,
			}).
			SetResult(&job).
			Post("/jobs")
		if err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("create job: %s: %s", resp.Status(), resp.String())
		}
		fmt.Printf("created job %s (%s)\n", job.ID, sample.name)
		jobIDs = append(jobIDs, job.ID)

		for j := 0; j < cvsPerJob; j++ {
			resp, err := client.R().
				SetContext(ctx).
				SetBody(map[string]string{
					"job_id":   job.ID,
					"filename": fmt.Sprintf("candidate_%d_%d.pdf", i+1, j+1),
					"text":     sampleCVs[j%len(sampleCVs)],
				}).
				Post("/cvs")
			if err != nil {
				return fmt.Errorf("upload cv: %w", err)
			}
			if resp.IsError() {
				return fmt.Errorf("upload cv: %s: %s", resp.Status(), resp.String())
			}
		}
		fmt.Printf("uploaded %d CVs\n", cvsPerJob)
	}

	for _, jobID := range jobIDs {
		var result struct {
			Succeeded int    `json:"succeeded"`
			Failed    int    `json:"failed"`
			Message   string `json:"message"`
		}
		resp, err := client.R().
			SetContext(ctx).
			SetResult(&result).
			Post("/matchings/" + jobID)
		if err != nil {
			return fmt.Errorf("generate scores: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("generate scores: %s: %s", resp.Status(), resp.String())
		}
		fmt.Printf("job %s: %d scored, %d failed %s\n", jobID, result.Succeeded, result.Failed, result.Message)
	}

	for _, endpoint := range []string{
		"/dashboard/count-jobs",
		"/dashboard/cvs-per-job",
		"/dashboard/best-cv-per-job",
		"/dashboard/job-average-score",
	} {
		resp, err := client.R().SetContext(ctx).Get(endpoint)
		if err != nil {
			return fmt.Errorf("dashboard %s: %w", endpoint, err)
		}
		fmt.Printf("%s -> %s\n", endpoint, resp.String())
	}

	return nil
}
