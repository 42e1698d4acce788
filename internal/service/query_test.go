package service

import (
	"testing"

	"github.com/knoguchi/talentrank/internal/memory"
	"github.com/knoguchi/talentrank/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestComposeQuery(t *testing.T) {
	job := &repository.Job{
		Title:          "Backend Engineer",
		Description:    "Build APIs",
		RequiredSkills: []string{"Go", "PostgreSQL"},
	}
	history := memory.History{
		{Role: memory.RoleUser, Content: "python devs"},
		{Role: memory.RoleAssistant, Content: "Found 4 candidates matching your criteria."},
	}

	tests := []struct {
		name    string
		raw     string
		history memory.History
		job     *repository.Job
		want    string
	}{
		{
			name: "raw only",
			raw:  "senior backend engineer with Go experience",
			want: "senior backend engineer with Go experience",
		},
		{
			name:    "with history",
			raw:     "only remote",
			history: history,
			want:    "Previous context:\nuser: python devs\nassistant: Found 4 candidates matching your criteria.\n\nCurrent request: only remote",
		},
		{
			name: "with job",
			raw:  "go devs",
			job:  job,
			want: "Job Context - Title: Backend Engineer, Description: Build APIs, Skills: Go, PostgreSQL\n\ngo devs",
		},
		{
			name:    "job outermost",
			raw:     "only remote",
			history: history[:1],
			job:     job,
			want: "Job Context - Title: Backend Engineer, Description: Build APIs, Skills: Go, PostgreSQL\n\n" +
				"Previous context:\nuser: python devs\n\nCurrent request: only remote",
		},
		{
			name: "raw is not trimmed",
			raw:  "  rust  ",
			want: "  rust  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeQuery(tt.raw, tt.history, tt.job)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, got, tt.raw)
		})
	}
}

func TestComposeQuery_UsesOnlyLastThreeTurns(t *testing.T) {
	tail := memory.History{
		memory.UserTurn("c"),
		{Role: memory.RoleAssistant, Content: "Found 2 candidates matching your criteria."},
		memory.UserTurn("d"),
	}
	long := memory.History{memory.UserTurn("a"), memory.UserTurn("b")}.Append(tail...)

	assert.Equal(t, ComposeQuery("q", tail, nil), ComposeQuery("q", long, nil))
	assert.NotContains(t, ComposeQuery("q", long, nil), "user: a")
}
