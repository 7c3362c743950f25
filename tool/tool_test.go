package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	assert.ElementsMatch(t, []string{"a"}, schema["required"])
}

func TestValidateParameters(t *testing.T) {
	for name, required := range map[string]any{
		"declared": []string{"x"},
		"decoded":  []any{"x"},
	} {
		t.Run(name, func(t *testing.T) {
			schema := map[string]any{
				"type": "object",
				"properties": map[string]any{
					"x": map[string]any{"type": "integer"},
				},
				"required": required,
			}

			assert.NoError(t, util.ValidateParameters(map[string]any{"x": 5}, schema))

			err := util.ValidateParameters(map[string]any{}, schema)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "x", vErr.Field)

			err = util.ValidateParameters(map[string]any{"x": "not-int"}, schema)
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Message, "expected type integer")
		})
	}
}

func TestDescribeParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Search terms"},
			"limit": map[string]any{"type": "integer"},
		},
		"required": []string{"query"},
	}
	assert.Equal(t, "limit (integer); query (string, required): Search terms", util.DescribeParameters(schema))
	assert.Equal(t, "no arguments", util.DescribeParameters(map[string]any{"type": "object"}))
}

// -------------------- FunctionTool Tests --------------------

func sumParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
}

func TestFunctionTool_Success(t *testing.T) {
	sumTool := NewFunctionTool("sum", "Add numbers", sumParams(), func(_ context.Context, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	result, err := sumTool.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	called := false
	tTool := NewFunctionTool("sum", "Add", sumParams(), func(_ context.Context, _ map[string]any) (any, error) {
		called = true
		return 0, nil
	})

	_, err := tTool.Call(context.Background(), map[string]any{"a": 1.0})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.False(t, called)
}

func TestFunctionTool_ErrorNormalization(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	quota := core.NewError(core.KindToolQuotaExceeded, "search", "quota")
	custom := NewToolError("fail", "bad input", "CUSTOM")

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantIs   error
	}{
		{"plain error", errors.New("boom"), CodeExecution, nil},
		{"tool error forwarded", custom, "CUSTOM", nil},
		{"core error forwarded", quota, "", core.ErrToolQuotaExceeded},
		{"context error forwarded", context.DeadlineExceeded, "", context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execTool := NewFunctionTool("fail", "Fails", params, func(_ context.Context, _ map[string]any) (any, error) {
				return nil, tt.err
			})
			_, err := execTool.Call(context.Background(), map[string]any{})
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
				return
			}
			var toolErr *ToolError
			require.ErrorAs(t, err, &toolErr)
			assert.Equal(t, tt.wantCode, toolErr.Code)
		})
	}
}

func TestFunctionTool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ft := NewFunctionTool("noop", "", nil, func(context.Context, map[string]any) (any, error) { return nil, nil })
	_, err := ft.Call(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// -------------------- Set Tests --------------------

func namedTool(name string) Tool {
	return NewFunctionTool(name, name, nil, func(context.Context, map[string]any) (any, error) { return name, nil })
}

func TestSet(t *testing.T) {
	s, err := NewSet(namedTool("search"), namedTool("calc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "calc"}, s.Names())
	assert.Equal(t, 2, s.Len())

	got, ok := s.Get("calc")
	require.True(t, ok)
	assert.Equal(t, "calc", got.Name())

	_, ok = s.Get("missing")
	assert.False(t, ok)

	sub, err := s.Subset("search")
	require.NoError(t, err)
	assert.Equal(t, []string{"search"}, sub.Names())

	_, err = s.Subset("search", "write")
	assert.ErrorContains(t, err, "write")
}

func TestSet_RejectsDuplicates(t *testing.T) {
	_, err := NewSet(namedTool("a"), namedTool("a"))
	assert.ErrorContains(t, err, "duplicate")
}

func TestSet_NilIsEmpty(t *testing.T) {
	var s *Set
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Names())
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")

	nf := NotFound("write", []string{"search"})
	assert.Equal(t, CodeNotFound, nf.Code)
	assert.Contains(t, nf.Error(), "search")
}
