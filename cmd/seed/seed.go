package main

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
	"gopkg.in/yaml.v3"
)

//go:embed jobs.yaml
var sampleJobsYAML []byte

type sampleJob struct {
	Title        string `yaml:"title"`
	Company      string `yaml:"company"`
	Category     string `yaml:"category"`
	JobType      string `yaml:"job_type"`
	Location     string `yaml:"location"`
	Salary       string `yaml:"salary"`
	Description  string `yaml:"description"`
	Requirements string `yaml:"requirements"`
	ContactEmail string `yaml:"contact_email"`
	ContactPhone string `yaml:"contact_phone"`
}

func parseSampleJobs(raw []byte) ([]sampleJob, error) {
	var jobs []sampleJob
	if err := yaml.Unmarshal(raw, &jobs); err != nil {
		return nil, fmt.Errorf("parse sample jobs: %w", err)
	}
	return jobs, nil
}

// seedStore is the subset of storage the seeder writes through.
type seedStore interface {
	AddUser(ctx context.Context, id int64, username, firstName, lastName string) error
	IsEmployer(ctx context.Context, id int64) (bool, error)
	PromoteToEmployer(ctx context.Context, id int64, company string) error
	CountJobs(ctx context.Context, category, jobType string) (int, error)
	AddJob(ctx context.Context, job storage.NewJob) (int64, error)
}

// seed posts jobs under employerID. It does nothing when the store already
// has active listings, unless force is set. It returns the number inserted.
func seed(ctx context.Context, store seedStore, employerID int64, jobs []sampleJob, force bool) (int, error) {
	if !force {
		active, err := store.CountJobs(ctx, "", "")
		if err != nil {
			return 0, err
		}
		if active > 0 {
			return 0, nil
		}
	}

	// An existing employer keeps its profile and company.
	isEmployer, err := store.IsEmployer(ctx, employerID)
	if err != nil {
		return 0, err
	}
	if !isEmployer {
		if err := store.AddUser(ctx, employerID, "", "Zewed", "Jobs"); err != nil {
			return 0, err
		}
		if err := store.PromoteToEmployer(ctx, employerID, "Zewed Jobs"); err != nil {
			return 0, err
		}
	}

	for i, j := range jobs {
		_, err := store.AddJob(ctx, storage.NewJob{
			Title:        j.Title,
			Company:      j.Company,
			Category:     j.Category,
			JobType:      j.JobType,
			Location:     j.Location,
			Salary:       j.Salary,
			Description:  j.Description,
			Requirements: j.Requirements,
			EmployerID:   employerID,
			ContactEmail: j.ContactEmail,
			ContactPhone: j.ContactPhone,
		})
		if err != nil {
			return i, fmt.Errorf("job %q: %w", j.Title, err)
		}
	}
	return len(jobs), nil
}
