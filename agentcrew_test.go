package agentcrew

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/artifact"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/evaluation"
	"github.com/hupe1980/agentcrew/internal/testutil"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/tool/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const briefing = `Final Answer: Executive Summary: three breakthroughs.
Story 1: AI triage. Source: Health Times.
Story 2: AI imaging. Source: Med Journal.
Story 3: AI drug discovery. Source: Bio Weekly.
Outlook: more to come.`

const blogPost = `# AI Is Rewriting Medicine

Three stories show how fast things move.

## AI Triage Goes Mainstream

Hospitals adopt triage models.

## Imaging Gets a Second Opinion

Radiology pairs with AI.

## Drug Discovery Speeds Up

Trials start sooner.

The future looks bright.`

func tenResults() search.BackendFunc {
	return func(_ context.Context, _ string, _ int) ([]search.Result, error) {
		results := make([]search.Result, 10)
		for i := range results {
			results[i] = search.Result{
				Title:   fmt.Sprintf("story %d", i+1),
				Snippet: "AI in healthcare news",
				URL:     fmt.Sprintf("https://news.example/%d", i+1),
			}
		}
		return results, nil
	}
}

// scriptedModel routes each request to the researcher or writer script by
// the role named in the system prompt.
func scriptedModel(t *testing.T) (*model.MockModel, *model.MockModel, *model.MockModel) {
	t.Helper()
	researcher := model.NewMockModel("researcher").
		AddResponse(testutil.NewTurn().Thought("I should search.").Action(search.ToolName, map[string]any{"query": "AI in healthcare news"}).Build()).
		AddResponse(briefing)
	writer := model.NewMockModel("writer").AddResponse(testutil.FinalAnswer(blogPost))

	router := model.NewMockModel("router").SetFallback("")
	router.AddFunc(route(t, researcher, writer)).
		AddFunc(route(t, researcher, writer)).
		AddFunc(route(t, researcher, writer))
	return router, researcher, writer
}

func route(t *testing.T, researcher, writer *model.MockModel) func(model.Request) (string, error) {
	return func(req model.Request) (string, error) {
		target := writer
		if strings.HasPrefix(req.System, "You are "+ResearcherRole) {
			target = researcher
		}
		resp, err := target.Generate(context.Background(), req)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	}
}

func TestNewsCrew_AIInHealthcare(t *testing.T) {
	dir := t.TempDir()
	llm, researcherLLM, writerLLM := scriptedModel(t)

	news, err := NewNewsCrew(llm, search.New(tenResults()), func(o *Options) {
		o.Store = artifact.NewFileStore(dir)
		o.Retry = agent.RetryPolicy{MaxRetries: 1, InitialBackoff: time.Millisecond}
	})
	require.NoError(t, err)

	out, err := news.Run(context.Background(), DefaultTopic)
	require.NoError(t, err)
	assert.Equal(t, core.StatusComplete, out.Status)
	require.Len(t, out.Tasks, 2)

	// The researcher saw at most three search results.
	reqs := researcherLLM.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].System, "AI in healthcare")
	assert.Equal(t, 3, strings.Count(reqs[1].Prompt, "Title: story"))
	assert.NotContains(t, reqs[1].Prompt, "story 4")

	research := out.Tasks[0]
	assert.Equal(t, ResearchTaskID, research.TaskID)
	for i := 1; i <= 3; i++ {
		assert.Contains(t, research.Raw, fmt.Sprintf("Story %d:", i))
	}

	// The writer received the research as context.
	wreqs := writerLLM.Requests()
	require.Len(t, wreqs, 1)
	assert.Contains(t, wreqs[0].Prompt, "Story 3: AI drug discovery")
	assert.NotContains(t, wreqs[0].System, "search_internet")

	assert.True(t, strings.HasPrefix(out.Raw, "# AI Is Rewriting Medicine"))
	assert.Equal(t, 3, strings.Count(out.Raw, "\n## "))

	saved, err := os.ReadFile(filepath.Join(dir, DefaultOutputPath))
	require.NoError(t, err)
	assert.Equal(t, out.Raw, string(saved))

	results := news.Evaluate(out)
	assert.Len(t, results, 4)
	assert.Empty(t, evaluation.Failed(results))
}

func TestNewsCrew_CancelWritesNothing(t *testing.T) {
	dir := t.TempDir()
	llm, _, _ := scriptedModel(t)

	news, err := NewNewsCrew(llm, search.New(tenResults()), func(o *Options) {
		o.Store = artifact.NewFileStore(dir)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = news.Run(ctx, DefaultTopic)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(filepath.Join(dir, DefaultOutputPath))
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewNewsCrew_Validation(t *testing.T) {
	_, err := NewNewsCrew(nil, search.New(tenResults()))
	assert.Error(t, err)

	_, err = NewNewsCrew(model.NewMockModel("m"), nil)
	assert.Error(t, err)

	news, err := NewNewsCrew(model.NewMockModel("m"), search.New(tenResults()))
	require.NoError(t, err)
	assert.Equal(t, ResearcherRole, news.Researcher().Role())
	assert.Equal(t, WriterRole, news.Writer().Role())
	assert.Equal(t, 0, news.Writer().Tools().Len())
	assert.Equal(t, 3, news.Researcher().MaxIterations())
	assert.True(t, news.Researcher().AllowDelegation())
	assert.Len(t, news.Crew().Tasks(), 2)
}
