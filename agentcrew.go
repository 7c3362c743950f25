// Package agentcrew assembles the news crew: a researcher that searches the
// web for the most impactful stories on a topic and a writer that turns the
// findings into a Markdown blog post.
//
// Most applications only need NewNewsCrew and Run:
//
//	llm := openai.NewGroqModel(os.Getenv("GROQ_API_KEY"))
//	searchTool := search.New(search.NewSerper(os.Getenv("SERPER_API_KEY")))
//
//	news, err := agentcrew.NewNewsCrew(llm, searchTool)
//	if err != nil { ... }
//	out, err := news.Run(ctx, agentcrew.DefaultTopic)
//
// The building blocks live in the agent, crew, tool and model packages and
// can be combined into other pipelines.
package agentcrew

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/artifact"
	"github.com/hupe1980/agentcrew/crew"
	"github.com/hupe1980/agentcrew/evaluation"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/metrics"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/tool"
)

const (
	// DefaultTopic is the topic the news crew was built for.
	DefaultTopic = "AI in healthcare"
	// DefaultOutputPath is where the blog post is written.
	DefaultOutputPath = "new-blog-post.md"

	ResearcherRole = "Senior News Researcher"
	WriterRole     = "Writer"

	ResearchTaskID = "research"
	WriteTaskID    = "write"

	// StoriesPerRun is how many stories the researcher reports and the
	// writer turns into sections.
	StoriesPerRun = 3
)

// Options configures the news crew.
type Options struct {
	MaxIterations   int
	AllowDelegation bool
	Verbose         bool
	// Temperature overrides the model default when > 0.
	Temperature float64
	CallTimeout time.Duration
	Retry       agent.RetryPolicy
	// OutputPath of the blog post; empty disables persistence.
	OutputPath string
	Store      artifact.Store
	Logger     *logging.CrewLogger
	Metrics    metrics.Recorder
}

// NewsCrew is the two-agent research and writing pipeline.
type NewsCrew struct {
	crew       *crew.Crew
	researcher *agent.Agent
	writer     *agent.Agent
}

// NewNewsCrew builds the researcher and writer agents and their tasks. The
// researcher gets searchTool; the writer has no tools and reads the
// research through its task context.
func NewNewsCrew(llm model.Model, searchTool tool.Tool, optFns ...func(o *Options)) (*NewsCrew, error) {
	if llm == nil {
		return nil, errors.New("agentcrew: model must not be nil")
	}
	if searchTool == nil {
		return nil, errors.New("agentcrew: search tool must not be nil")
	}

	opts := Options{
		MaxIterations:   agent.DefaultMaxIterations,
		AllowDelegation: true,
		Verbose:         true,
		CallTimeout:     agent.DefaultCallTimeout,
		Retry:           agent.DefaultRetryPolicy(),
		OutputPath:      DefaultOutputPath,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	common := func(o *agent.Options) {
		o.MaxIterations = opts.MaxIterations
		o.AllowDelegation = opts.AllowDelegation
		o.Verbose = opts.Verbose
		o.Temperature = opts.Temperature
		o.CallTimeout = opts.CallTimeout
		o.Retry = opts.Retry
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	}

	researcher, err := agent.New(ResearcherRole, llm, common, func(o *agent.Options) {
		o.Goal = researcherGoal
		o.Backstory = researcherBackstory
		o.Tools = []tool.Tool{searchTool}
	})
	if err != nil {
		return nil, err
	}

	writer, err := agent.New(WriterRole, llm, common, func(o *agent.Options) {
		o.Goal = writerGoal
		o.Backstory = writerBackstory
	})
	if err != nil {
		return nil, err
	}

	research, err := crew.NewTask(ResearchTaskID, researcher, func(o *crew.TaskOptions) {
		o.Description = researchDescription
		o.ExpectedOutput = researchExpectedOutput
		o.Tools = []tool.Tool{searchTool}
	})
	if err != nil {
		return nil, err
	}

	write, err := crew.NewTask(WriteTaskID, writer, func(o *crew.TaskOptions) {
		o.Description = writeDescription
		o.ExpectedOutput = writeExpectedOutput
		o.Context = []*crew.Task{research}
		o.OutputPath = opts.OutputPath
	})
	if err != nil {
		return nil, err
	}

	c, err := crew.New([]*agent.Agent{researcher, writer}, []*crew.Task{research, write}, func(o *crew.Options) {
		o.Store = opts.Store
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})
	if err != nil {
		return nil, err
	}

	return &NewsCrew{crew: c, researcher: researcher, writer: writer}, nil
}

// Run researches topic and returns the crew output. The final text is the
// blog post.
func (n *NewsCrew) Run(ctx context.Context, topic string) (*crew.Output, error) {
	return n.crew.Run(ctx, topic)
}

// Crew returns the underlying pipeline.
func (n *NewsCrew) Crew() *crew.Crew { return n.crew }

// Researcher returns the research agent.
func (n *NewsCrew) Researcher() *agent.Agent { return n.researcher }

// Writer returns the writing agent.
func (n *NewsCrew) Writer() *agent.Agent { return n.writer }

// Evaluate checks the run against the expected output structure: the
// briefing labels StoriesPerRun stories and the article has one H1 and
// StoriesPerRun H2 sections.
func (n *NewsCrew) Evaluate(out *crew.Output) []evaluation.Result {
	var results []evaluation.Result
	for _, t := range out.Tasks {
		switch t.TaskID {
		case ResearchTaskID:
			results = append(results, evaluation.Run(t, evaluation.Complete(), evaluation.StoryCount(StoriesPerRun))...)
		case WriteTaskID:
			results = append(results, evaluation.Run(t, evaluation.Complete(), evaluation.MarkdownArticle(StoriesPerRun))...)
		}
	}
	return results
}
