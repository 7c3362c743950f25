// Package evaluation checks task outputs against the structure their
// expected output asks for. Checks never fail a run; callers decide whether
// to warn, retry or reject.
package evaluation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/agentcrew/core"
)

// Result is the verdict of one check.
type Result struct {
	Name    string
	TaskID  string
	Passed  bool
	Details string
}

// Evaluator checks a single task output.
type Evaluator interface {
	Name() string
	Evaluate(out core.TaskOutput) Result
}

type evaluatorFunc struct {
	name string
	fn   func(out core.TaskOutput) (bool, string)
}

func (e evaluatorFunc) Name() string { return e.name }

func (e evaluatorFunc) Evaluate(out core.TaskOutput) Result {
	ok, details := e.fn(out)
	return Result{Name: e.name, TaskID: out.TaskID, Passed: ok, Details: details}
}

// New wraps fn as an Evaluator.
func New(name string, fn func(out core.TaskOutput) (bool, string)) Evaluator {
	return evaluatorFunc{name: name, fn: fn}
}

var (
	h1Pattern    = regexp.MustCompile(`(?m)^#\s+\S`)
	h2Pattern    = regexp.MustCompile(`(?m)^##\s+\S`)
	storyPattern = regexp.MustCompile(`(?im)^[\s\-*#]*(?:\*\*)?story\s+(\d+)\b`)
)

// Complete passes when the task ended with a final answer.
func Complete() Evaluator {
	return New("complete", func(out core.TaskOutput) (bool, string) {
		if out.IsPartial() {
			return false, fmt.Sprintf("iteration budget exhausted after %d turns", out.Turns)
		}
		return true, ""
	})
}

// MarkdownArticle passes when the output has exactly one H1 headline and
// exactly sections H2 headlines.
func MarkdownArticle(sections int) Evaluator {
	return New("markdown_article", func(out core.TaskOutput) (bool, string) {
		h1 := len(h1Pattern.FindAllStringIndex(out.Raw, -1))
		h2 := len(h2Pattern.FindAllStringIndex(out.Raw, -1))
		var problems []string
		if h1 != 1 {
			problems = append(problems, fmt.Sprintf("want 1 H1 headline, got %d", h1))
		}
		if h2 != sections {
			problems = append(problems, fmt.Sprintf("want %d H2 sections, got %d", sections, h2))
		}
		return len(problems) == 0, strings.Join(problems, "; ")
	})
}

// StoryCount passes when the output labels exactly n distinct stories
// ("Story 1" ... "Story n").
func StoryCount(n int) Evaluator {
	return New("story_count", func(out core.TaskOutput) (bool, string) {
		seen := make(map[string]struct{})
		for _, m := range storyPattern.FindAllStringSubmatch(out.Raw, -1) {
			seen[m[1]] = struct{}{}
		}
		if len(seen) != n {
			return false, fmt.Sprintf("want %d stories, got %d", n, len(seen))
		}
		return true, ""
	})
}

// Run applies every evaluator to out.
func Run(out core.TaskOutput, evaluators ...Evaluator) []Result {
	results := make([]Result, 0, len(evaluators))
	for _, e := range evaluators {
		results = append(results, e.Evaluate(out))
	}
	return results
}

// Failed filters results down to the failed checks.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
