package service

import (
	"fmt"
	"strings"

	"github.com/knoguchi/talentrank/internal/memory"
	"github.com/knoguchi/talentrank/internal/repository"
)

// ComposeQuery builds the search text sent to the embedder and the reranker.
//
// Recent conversation turns wrap the raw query, and a job summary, when
// given, is placed in front of everything else:
//
//	Job Context - Title: ..., Description: ..., Skills: a, b
//
//	Previous context:
//	user: ...
//	assistant: ...
//
//	Current request: <raw>
func ComposeQuery(raw string, history memory.History, job *repository.Job) string {
	query := raw

	if recent := history.Recent(memory.ContextTurns); len(recent) > 0 {
		query = "Previous context:\n" + recent.Format() + "\n\nCurrent request: " + raw
	}

	if job != nil {
		query = fmt.Sprintf("Job Context - Title: %s, Description: %s, Skills: %s\n\n",
			job.Title, job.Description, strings.Join(job.RequiredSkills, ", ")) + query
	}

	return query
}
