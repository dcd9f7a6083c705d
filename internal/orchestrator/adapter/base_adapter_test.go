package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Message string `json:"message" jsonschema:"description=Text to echo back"`
	Repeat  int    `json:"repeat,omitempty" jsonschema:"description=Number of repetitions"`
}

func (r echoRequest) Validate() error {
	if r.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

type echoResponse struct {
	Echoed string `json:"echoed"`
	Count  int    `json:"count"`
}

func newEchoTool(executor Executor[echoRequest, echoResponse]) Tool {
	if executor == nil {
		executor = func(ctx context.Context, req echoRequest) (echoResponse, error) {
			count := req.Repeat
			if count == 0 {
				count = 1
			}
			return echoResponse{Echoed: req.Message, Count: count}, nil
		}
	}
	return NewBaseAdapter[echoRequest, echoResponse]("echo", "Echoes its input.", "", false, executor)
}

func TestBaseAdapter_Execute(t *testing.T) {
	tool := newEchoTool(nil)

	output, err := tool.Execute(context.Background(), `{"message":"hi","repeat":3}`)
	require.NoError(t, err)
	require.Len(t, output, 1)
	assert.JSONEq(t, `{"echoed":"hi","count":3}`, output[0].Content)
}

func TestBaseAdapter_ValidationFailure(t *testing.T) {
	tool := newEchoTool(nil)

	_, err := tool.Execute(context.Background(), `{"repeat":2}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message is required")
}

func TestBaseAdapter_MalformedArguments(t *testing.T) {
	tool := newEchoTool(nil)

	_, err := tool.Execute(context.Background(), `{"message":`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments")
}

func TestBaseAdapter_UnknownFieldsIgnored(t *testing.T) {
	tool := newEchoTool(nil)

	output, err := tool.Execute(context.Background(), `{"message":"hi","surprise":true}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"echoed":"hi","count":1}`, output[0].Content)
}

func TestBaseAdapter_ExecutorErrorPropagates(t *testing.T) {
	wantErr := errors.New("backend down")
	tool := newEchoTool(func(ctx context.Context, req echoRequest) (echoResponse, error) {
		return echoResponse{}, wantErr
	})

	_, err := tool.Execute(context.Background(), `{"message":"hi"}`)
	assert.ErrorIs(t, err, wantErr)
}

func TestBaseAdapter_Definition(t *testing.T) {
	tool := newEchoTool(nil)

	def := tool.Definition()
	assert.Equal(t, "echo", def.Name)
	assert.Equal(t, "Echoes its input.", def.Description)
	require.NotNil(t, def.Parameters)
	assert.Equal(t, "object", def.Parameters.Type)
	assert.Contains(t, def.Parameters.Properties, "message")
	assert.Contains(t, def.Parameters.Properties, "repeat")
	assert.Equal(t, []string{"message"}, def.Parameters.Required)

	assert.False(t, tool.NeedsApproval())
	assert.Empty(t, tool.Prompt("", nil))
}

func TestSchemaFor_EmptyStruct(t *testing.T) {
	type empty struct{}
	assert.Nil(t, SchemaFor(empty{}))
}

func TestSchemaFor_EnumsAndDescriptions(t *testing.T) {
	schema := SchemaFor(SandboxRequest{})
	require.NotNil(t, schema)

	op, ok := schema.Properties["operation"]
	require.True(t, ok)
	assert.Contains(t, op.Enum, "read")
	assert.Contains(t, op.Enum, "gitDiff")
	assert.NotEmpty(t, op.Description)
	assert.Contains(t, schema.Required, "operation")
}
