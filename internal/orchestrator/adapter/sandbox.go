package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const sandboxDescription = "Operate on the conversation's sandboxed workspace. " +
	"Supports file operations (read, write, list, stat, exists, delete, mkdir) " +
	"and read-only git inspection (gitStatus, gitLog, gitDiff)."

const sandboxPrompt = `The sandbox_fs tool gives you a private workspace scoped to this conversation.
Pass the desired operation in the "operation" field. Paths are relative to the workspace root.`

// SandboxRequest is the argument shape of the sandbox_fs tool.
type SandboxRequest struct {
	Operation string `json:"operation" jsonschema:"enum=read,enum=write,enum=list,enum=stat,enum=exists,enum=delete,enum=mkdir,enum=gitStatus,enum=gitLog,enum=gitDiff,description=Operation to perform"`
	Path      string `json:"path,omitempty" jsonschema:"description=Path relative to the workspace root"`
	Content   string `json:"content,omitempty" jsonschema:"description=File content for write"`
	Revision  string `json:"revision,omitempty" jsonschema:"description=Git revision for gitDiff (default HEAD)"`
	MaxCount  int    `json:"maxCount,omitempty" jsonschema:"description=Maximum commits for gitLog (default 10)"`
}

// Validate implements Validator.
func (r SandboxRequest) Validate() error {
	switch r.Operation {
	case "":
		return fmt.Errorf("operation is required")
	case "read", "write", "stat", "exists", "delete", "mkdir":
		if r.Path == "" {
			return fmt.Errorf("path is required for %s", r.Operation)
		}
	case "list", "gitStatus", "gitLog", "gitDiff":
	default:
		return fmt.Errorf("unknown operation %q", r.Operation)
	}
	if r.Operation == "write" && r.Content == "" {
		return fmt.Errorf("content is required for write")
	}
	return nil
}

// SandboxResponse is the result shape of the sandbox_fs tool. Only the
// fields relevant to the executed operation are populated.
type SandboxResponse struct {
	Content string   `json:"content,omitempty"`
	Entries []string `json:"entries,omitempty"`
	Exists  *bool    `json:"exists,omitempty"`
	Size    int64    `json:"size,omitempty"`
	IsDir   bool     `json:"isDir,omitempty"`
	Done    bool     `json:"done,omitempty"`
	Git     string   `json:"git,omitempty"`
}

// sandbox executes workspace operations rooted in a per-conversation
// directory. Paths are confined to the root; escapes are rejected.
type sandbox struct {
	root string
}

// NewSandboxTool returns the built-in sandbox_fs tool rooted at the given
// workspace directory. Calls require approval: the tool can mutate the
// workspace, and operation-level phase gating is a separate mechanism.
func NewSandboxTool(root string) Tool {
	s := &sandbox{root: filepath.Clean(root)}
	return NewBaseAdapter[SandboxRequest, SandboxResponse](
		"sandbox_fs",
		sandboxDescription,
		sandboxPrompt,
		true,
		s.run,
	)
}

func (s *sandbox) run(ctx context.Context, req SandboxRequest) (SandboxResponse, error) {
	switch req.Operation {
	case "read":
		path, err := s.resolve(req.Path)
		if err != nil {
			return SandboxResponse{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return SandboxResponse{}, fmt.Errorf("read %s: %w", req.Path, err)
		}
		return SandboxResponse{Content: string(data)}, nil

	case "write":
		path, err := s.resolve(req.Path)
		if err != nil {
			return SandboxResponse{}, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return SandboxResponse{}, fmt.Errorf("write %s: %w", req.Path, err)
		}
		if err := os.WriteFile(path, []byte(req.Content), 0o644); err != nil {
			return SandboxResponse{}, fmt.Errorf("write %s: %w", req.Path, err)
		}
		return SandboxResponse{Done: true}, nil

	case "list":
		path, err := s.resolve(req.Path)
		if err != nil {
			return SandboxResponse{}, err
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return SandboxResponse{}, fmt.Errorf("list %s: %w", req.Path, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		sort.Strings(names)
		return SandboxResponse{Entries: names}, nil

	case "stat":
		path, err := s.resolve(req.Path)
		if err != nil {
			return SandboxResponse{}, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return SandboxResponse{}, fmt.Errorf("stat %s: %w", req.Path, err)
		}
		return SandboxResponse{Size: info.Size(), IsDir: info.IsDir()}, nil

	case "exists":
		path, err := s.resolve(req.Path)
		if err != nil {
			return SandboxResponse{}, err
		}
		exists := true
		if _, err := os.Stat(path); err != nil {
			if !os.IsNotExist(err) {
				return SandboxResponse{}, fmt.Errorf("stat %s: %w", req.Path, err)
			}
			exists = false
		}
		return SandboxResponse{Exists: &exists}, nil

	case "delete":
		path, err := s.resolve(req.Path)
		if err != nil {
			return SandboxResponse{}, err
		}
		if err := os.RemoveAll(path); err != nil {
			return SandboxResponse{}, fmt.Errorf("delete %s: %w", req.Path, err)
		}
		return SandboxResponse{Done: true}, nil

	case "mkdir":
		path, err := s.resolve(req.Path)
		if err != nil {
			return SandboxResponse{}, err
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return SandboxResponse{}, fmt.Errorf("mkdir %s: %w", req.Path, err)
		}
		return SandboxResponse{Done: true}, nil

	case "gitStatus":
		return s.gitStatus()
	case "gitLog":
		return s.gitLog(req.MaxCount)
	case "gitDiff":
		return s.gitDiff(req.Revision)

	default:
		return SandboxResponse{}, fmt.Errorf("unknown operation %q", req.Operation)
	}
}

// resolve confines a relative path to the workspace root.
func (s *sandbox) resolve(rel string) (string, error) {
	return confine(s.root, rel)
}

// confine joins rel onto root and rejects results outside of root.
func confine(root, rel string) (string, error) {
	path := filepath.Clean(filepath.Join(root, rel))
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", rel)
	}
	return path, nil
}

func (s *sandbox) gitStatus() (SandboxResponse, error) {
	repo, err := git.PlainOpen(s.root)
	if err != nil {
		return SandboxResponse{}, fmt.Errorf("open repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return SandboxResponse{}, fmt.Errorf("worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return SandboxResponse{}, fmt.Errorf("status: %w", err)
	}
	text := status.String()
	if text == "" {
		text = "clean"
	}
	return SandboxResponse{Git: text}, nil
}

func (s *sandbox) gitLog(maxCount int) (SandboxResponse, error) {
	if maxCount <= 0 {
		maxCount = 10
	}
	repo, err := git.PlainOpen(s.root)
	if err != nil {
		return SandboxResponse{}, fmt.Errorf("open repository: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{})
	if err != nil {
		return SandboxResponse{}, fmt.Errorf("log: %w", err)
	}
	defer iter.Close()

	var b strings.Builder
	for i := 0; i < maxCount; i++ {
		commit, err := iter.Next()
		if err != nil {
			break
		}
		summary := commit.Message
		if idx := strings.IndexByte(summary, '\n'); idx >= 0 {
			summary = summary[:idx]
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", commit.Hash.String()[:8], summary, commit.Author.Name)
	}
	return SandboxResponse{Git: b.String()}, nil
}

func (s *sandbox) gitDiff(revision string) (SandboxResponse, error) {
	if revision == "" {
		revision = "HEAD"
	}
	repo, err := git.PlainOpen(s.root)
	if err != nil {
		return SandboxResponse{}, fmt.Errorf("open repository: %w", err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return SandboxResponse{}, fmt.Errorf("resolve %s: %w", revision, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return SandboxResponse{}, fmt.Errorf("commit %s: %w", revision, err)
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return SandboxResponse{Git: "no parent commit to diff against"}, nil
	}
	patch, err := parent.Patch(commit)
	if err != nil {
		return SandboxResponse{}, fmt.Errorf("diff %s: %w", revision, err)
	}
	return SandboxResponse{Git: patch.String()}, nil
}
