package adapter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sandboxCall(t *testing.T, tool Tool, args string) SandboxResponse {
	t.Helper()
	output, err := tool.Execute(context.Background(), args)
	require.NoError(t, err)
	require.Len(t, output, 1)

	var resp SandboxResponse
	require.NoError(t, json.Unmarshal([]byte(output[0].Content), &resp))
	return resp
}

func TestSandbox_FileLifecycle(t *testing.T) {
	root := t.TempDir()
	tool := NewSandboxTool(root)

	resp := sandboxCall(t, tool, `{"operation":"write","path":"notes/a.txt","content":"hello"}`)
	assert.True(t, resp.Done)

	resp = sandboxCall(t, tool, `{"operation":"read","path":"notes/a.txt"}`)
	assert.Equal(t, "hello", resp.Content)

	resp = sandboxCall(t, tool, `{"operation":"stat","path":"notes/a.txt"}`)
	assert.Equal(t, int64(5), resp.Size)
	assert.False(t, resp.IsDir)

	resp = sandboxCall(t, tool, `{"operation":"list","path":"notes"}`)
	assert.Equal(t, []string{"a.txt"}, resp.Entries)

	resp = sandboxCall(t, tool, `{"operation":"exists","path":"notes/a.txt"}`)
	require.NotNil(t, resp.Exists)
	assert.True(t, *resp.Exists)

	resp = sandboxCall(t, tool, `{"operation":"delete","path":"notes/a.txt"}`)
	assert.True(t, resp.Done)

	resp = sandboxCall(t, tool, `{"operation":"exists","path":"notes/a.txt"}`)
	require.NotNil(t, resp.Exists)
	assert.False(t, *resp.Exists)
}

func TestSandbox_MkdirAndListDirs(t *testing.T) {
	root := t.TempDir()
	tool := NewSandboxTool(root)

	sandboxCall(t, tool, `{"operation":"mkdir","path":"sub/dir"}`)
	resp := sandboxCall(t, tool, `{"operation":"list","path":"sub"}`)
	assert.Equal(t, []string{"dir/"}, resp.Entries)
}

func TestSandbox_PathEscapeRejected(t *testing.T) {
	root := t.TempDir()
	tool := NewSandboxTool(root)

	for _, path := range []string{"../outside.txt", "a/../../outside.txt"} {
		args, err := json.Marshal(map[string]string{"operation": "read", "path": path})
		require.NoError(t, err)

		_, err = tool.Execute(context.Background(), string(args))
		require.Error(t, err, "path %s should be rejected", path)
		assert.Contains(t, err.Error(), "escapes the workspace")
	}
}

func TestSandbox_ValidationErrors(t *testing.T) {
	tool := NewSandboxTool(t.TempDir())

	tests := []struct {
		name string
		args string
		want string
	}{
		{name: "missing operation", args: `{}`, want: "operation is required"},
		{name: "unknown operation", args: `{"operation":"format"}`, want: "unknown operation"},
		{name: "read without path", args: `{"operation":"read"}`, want: "path is required"},
		{name: "write without content", args: `{"operation":"write","path":"a.txt"}`, want: "content is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tool.Execute(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSandbox_ReadMissingFile(t *testing.T) {
	tool := NewSandboxTool(t.TempDir())

	_, err := tool.Execute(context.Background(), `{"operation":"read","path":"missing.txt"}`)
	require.Error(t, err)
}

func TestSandbox_GitOnPlainDirectory(t *testing.T) {
	tool := NewSandboxTool(t.TempDir())

	_, err := tool.Execute(context.Background(), `{"operation":"gitStatus"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open repository")
}

func TestSandbox_GitInspection(t *testing.T) {
	root := t.TempDir()

	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("one\n"), 0o644))
	_, err = worktree.Add("a.txt")
	require.NoError(t, err)
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}
	_, err = worktree.Commit("add a.txt", &git.CommitOptions{Author: sig})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("one\ntwo\n"), 0o644))
	_, err = worktree.Add("a.txt")
	require.NoError(t, err)
	_, err = worktree.Commit("append two", &git.CommitOptions{Author: sig})
	require.NoError(t, err)

	tool := NewSandboxTool(root)

	resp := sandboxCall(t, tool, `{"operation":"gitLog","maxCount":5}`)
	assert.Contains(t, resp.Git, "append two")
	assert.Contains(t, resp.Git, "add a.txt")
	assert.Contains(t, resp.Git, "tester")

	resp = sandboxCall(t, tool, `{"operation":"gitDiff"}`)
	assert.Contains(t, resp.Git, "+two")

	resp = sandboxCall(t, tool, `{"operation":"gitStatus"}`)
	assert.Equal(t, "clean", resp.Git)
}
