package crew

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/artifact"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/testutil"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgent(t *testing.T, role string, llm model.Model, optFns ...func(o *agent.Options)) *agent.Agent {
	t.Helper()
	fns := append([]func(o *agent.Options){func(o *agent.Options) {
		o.Goal = "Work on {topic}"
		o.Retry = agent.RetryPolicy{MaxRetries: 1, InitialBackoff: time.Millisecond}
	}}, optFns...)
	a, err := agent.New(role, llm, fns...)
	require.NoError(t, err)
	return a
}

func newTask(t *testing.T, id string, a *agent.Agent, optFns ...func(o *TaskOptions)) *Task {
	t.Helper()
	fns := append([]func(o *TaskOptions){func(o *TaskOptions) {
		o.Description = "Do " + id + " about {topic}"
		o.ExpectedOutput = "Output of " + id
	}}, optFns...)
	task, err := NewTask(id, a, fns...)
	require.NoError(t, err)
	return task
}

type pipeline struct {
	researcherLLM *model.MockModel
	writerLLM     *model.MockModel
	researcher    *agent.Agent
	writer        *agent.Agent
	research      *Task
	write         *Task
}

func newPipeline(t *testing.T, outputPath string) *pipeline {
	p := &pipeline{
		researcherLLM: model.NewMockModel("researcher"),
		writerLLM:     model.NewMockModel("writer"),
	}
	p.researcher = newAgent(t, "Researcher", p.researcherLLM)
	p.writer = newAgent(t, "Writer", p.writerLLM)
	p.research = newTask(t, "research", p.researcher)
	p.write = newTask(t, "write", p.writer, func(o *TaskOptions) {
		o.Context = []*Task{p.research}
		o.OutputPath = outputPath
	})
	return p
}

func (p *pipeline) crew(t *testing.T, optFns ...func(o *Options)) *Crew {
	t.Helper()
	c, err := New([]*agent.Agent{p.researcher, p.writer}, []*Task{p.research, p.write}, optFns...)
	require.NoError(t, err)
	return c
}

func TestRun_SequentialWithContext(t *testing.T) {
	p := newPipeline(t, "post.md")
	p.researcherLLM.AddResponse(testutil.FinalAnswer("1. finding A\n2. finding B\n3. finding C"))
	p.writerLLM.AddResponse(testutil.FinalAnswer("# Title\n\nBody"))
	store := artifact.NewInMemoryStore()

	out, err := p.crew(t, func(o *Options) { o.Store = store }).Run(context.Background(), "AI in healthcare")
	require.NoError(t, err)

	require.Len(t, out.Tasks, 2)
	assert.Equal(t, "research", out.Tasks[0].TaskID)
	assert.Equal(t, "write", out.Tasks[1].TaskID)
	assert.Equal(t, "# Title\n\nBody", out.Raw)
	assert.Equal(t, core.StatusComplete, out.Status)
	assert.NotEmpty(t, out.RunID)

	writerPrompt := p.writerLLM.Requests()[0].Prompt
	assert.Contains(t, writerPrompt, "Do write about AI in healthcare")
	assert.Contains(t, writerPrompt, "1. finding A\n2. finding B\n3. finding C")
	assert.Contains(t, p.researcherLLM.Requests()[0].System, "Work on AI in healthcare")

	saved, err := store.Get(context.Background(), "post.md")
	require.NoError(t, err)
	assert.Equal(t, out.Raw, string(saved))
	assert.Equal(t, []string{"post.md"}, store.List())
}

func TestRun_AbortsOnTaskFailure(t *testing.T) {
	p := newPipeline(t, "post.md")
	p.researcherLLM.AddError(core.NewError(core.KindPromptRejected, "mock", "rejected"))
	store := artifact.NewInMemoryStore()

	_, err := p.crew(t, func(o *Options) { o.Store = store }).Run(context.Background(), "AI in healthcare")
	require.Error(t, err)

	var tef *core.TaskExecutionFailedError
	require.ErrorAs(t, err, &tef)
	assert.Equal(t, "research", tef.TaskID)
	assert.Equal(t, 0, p.writerLLM.Calls(), "later tasks are never invoked")
	assert.Equal(t, 0, store.Saves())
}

func TestRun_CancelledWritesNothing(t *testing.T) {
	p := newPipeline(t, "post.md")
	ctx, cancel := context.WithCancel(context.Background())
	p.researcherLLM.AddFunc(func(model.Request) (string, error) {
		cancel()
		return testutil.FinalAnswer("findings"), nil
	})
	p.writerLLM.SetFallback(testutil.FinalAnswer("article"))
	store := artifact.NewInMemoryStore()

	_, err := p.crew(t, func(o *Options) { o.Store = store }).Run(ctx, "AI in healthcare")
	assert.ErrorIs(t, err, core.ErrCancelled)
	assert.Equal(t, 0, p.writerLLM.Calls())
	assert.Equal(t, 0, store.Saves())
}

func TestRun_IdempotentPersistence(t *testing.T) {
	dir := t.TempDir()
	store := artifact.NewFileStore(dir)

	for _, body := range []string{"# First run\n\nlonger body text", "# Second run"} {
		p := newPipeline(t, "new-blog-post.md")
		p.researcherLLM.AddResponse(testutil.FinalAnswer("findings"))
		p.writerLLM.AddResponse(testutil.FinalAnswer(body))
		_, err := p.crew(t, func(o *Options) { o.Store = store }).Run(context.Background(), "AI in healthcare")
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got, err := os.ReadFile(filepath.Join(dir, "new-blog-post.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Second run", string(got))
}

func TestRun_PartialStatusIsPersisted(t *testing.T) {
	p := newPipeline(t, "post.md")
	p.researcherLLM.AddResponse(testutil.FinalAnswer("findings"))
	p.writerLLM.SetFallback(testutil.NewTurn().Thought("still drafting").Action("search_internet", map[string]any{"query": "x"}).Build())
	store := artifact.NewInMemoryStore()

	out, err := p.crew(t, func(o *Options) { o.Store = store }).Run(context.Background(), "AI in healthcare")
	require.NoError(t, err)
	assert.True(t, out.IsPartial())
	assert.Equal(t, "still drafting", out.Raw)
	assert.Equal(t, agent.DefaultMaxIterations, out.Final().Turns)
	assert.Equal(t, 1, store.Saves())
}

type cancelOnSave struct {
	*artifact.InMemoryStore
	cancel context.CancelFunc
}

func (s *cancelOnSave) Save(ctx context.Context, path string, data []byte) error {
	s.cancel()
	return s.InMemoryStore.Save(ctx, path, data)
}

func TestRun_PersistenceIsAllOrNothing(t *testing.T) {
	p := newPipeline(t, "post.md")
	p.research = newTask(t, "research", p.researcher, func(o *TaskOptions) { o.OutputPath = "briefing.md" })
	p.write = newTask(t, "write", p.writer, func(o *TaskOptions) {
		o.Context = []*Task{p.research}
		o.OutputPath = "post.md"
	})
	p.researcherLLM.AddResponse(testutil.FinalAnswer("findings"))
	p.writerLLM.AddResponse(testutil.FinalAnswer("article"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &cancelOnSave{InMemoryStore: artifact.NewInMemoryStore(), cancel: cancel}

	out, err := p.crew(t, func(o *Options) { o.Store = store }).Run(ctx, "AI in healthcare")
	require.NoError(t, err, "cancellation after persistence began must not leave a partial set of files")
	assert.Equal(t, "article", out.Raw)
	assert.Equal(t, []string{"briefing.md", "post.md"}, store.List())
	assert.Equal(t, 2, store.Saves())
}

func TestRun_EmptyTopic(t *testing.T) {
	p := newPipeline(t, "")
	_, err := p.crew(t).Run(context.Background(), "  ")
	assert.ErrorContains(t, err, `input "topic" must not be empty`)
	assert.Equal(t, 0, p.researcherLLM.Calls())
}

func TestNew_Validation(t *testing.T) {
	llm := model.NewMockModel("m")
	search := tool.NewFunctionTool("search_internet", "search", nil, func(context.Context, map[string]any) (any, error) { return nil, nil })
	other := tool.NewFunctionTool("calculator", "calc", nil, func(context.Context, map[string]any) (any, error) { return nil, nil })

	researcher := newAgent(t, "Researcher", llm, func(o *agent.Options) { o.Tools = []tool.Tool{search} })
	outsider := newAgent(t, "Outsider", llm)

	first := newTask(t, "first", researcher)
	later := newTask(t, "later", researcher)

	tests := []struct {
		name  string
		tasks []*Task
		opts  func(o *Options)
		want  string
	}{
		{
			name:  "unknown placeholder",
			tasks: []*Task{newTask(t, "t", researcher, func(o *TaskOptions) { o.Description = "Write about {subject}" })},
			want:  "{subject}",
		},
		{
			name:  "context must point backwards",
			tasks: []*Task{newTask(t, "t", researcher, func(o *TaskOptions) { o.Context = []*Task{later} }), later},
			want:  "must be declared earlier",
		},
		{
			name:  "async rejected",
			tasks: []*Task{newTask(t, "t", researcher, func(o *TaskOptions) { o.Async = true })},
			want:  "async",
		},
		{
			name:  "tool not owned by agent",
			tasks: []*Task{newTask(t, "t", researcher, func(o *TaskOptions) { o.Tools = []tool.Tool{other} })},
			want:  "calculator",
		},
		{
			name:  "agent not a member",
			tasks: []*Task{newTask(t, "t", outsider)},
			want:  "not a crew member",
		},
		{
			name:  "duplicate ids",
			tasks: []*Task{first, newTask(t, "first", researcher)},
			want:  "duplicate task id",
		},
		{
			name:  "hierarchical process",
			tasks: []*Task{first},
			opts:  func(o *Options) { o.Process = ProcessHierarchical },
			want:  "hierarchical",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fns []func(o *Options)
			if tt.opts != nil {
				fns = append(fns, tt.opts)
			}
			_, err := New([]*agent.Agent{researcher}, tt.tasks, fns...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_ToolSubsetAccepted(t *testing.T) {
	search := tool.NewFunctionTool("search_internet", "search", nil, func(context.Context, map[string]any) (any, error) { return nil, nil })
	a := newAgent(t, "Researcher", model.NewMockModel("m"), func(o *agent.Options) { o.Tools = []tool.Tool{search} })
	task := newTask(t, "t", a, func(o *TaskOptions) { o.Tools = []tool.Tool{search} })

	c, err := New([]*agent.Agent{a}, []*Task{task})
	require.NoError(t, err)
	assert.Equal(t, []string{"search_internet"}, c.toolSet["t"].Names())
}

func TestNewTask_Validation(t *testing.T) {
	_, err := NewTask("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id must not be empty")
	assert.Contains(t, err.Error(), "agent must not be nil")
	assert.Contains(t, err.Error(), "description must not be empty")
}

func TestNewTask_ParsesTemplates(t *testing.T) {
	a := newAgent(t, "Researcher", model.NewMockModel("m"))
	task, err := NewTask("t", a, func(o *TaskOptions) {
		o.Description = "Find news about {topic}"
		o.ExpectedOutput = "A {format} briefing"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"topic"}, task.Description().Placeholders())
	assert.Equal(t, []string{"format"}, task.ExpectedOutput().Placeholders())

	_, err = New([]*agent.Agent{a}, []*Task{task})
	require.Error(t, err, "undeclared placeholders are caught when the crew is built")
	assert.ErrorIs(t, err, core.ErrUnresolvedPlaceholder)
}
