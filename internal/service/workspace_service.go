package service

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maheshrc27/mission-control/internal/transfer"
)

const (
	maxWorkspaceFileBytes = 1 << 20
	defaultTreeDepth      = 3
	maxTreeDepth          = 8
)

type WorkspaceNode struct {
	Name     string           `json:"name"`
	Path     string           `json:"path"`
	IsDir    bool             `json:"is_dir"`
	Size     int64            `json:"size"`
	ModTime  time.Time        `json:"mod_time"`
	Children []*WorkspaceNode `json:"children,omitempty"`
}

type WorkspaceFile struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
	Binary    bool   `json:"binary"`
}

type WorkspaceService interface {
	Tree(rel string, depth int) (*WorkspaceNode, error)
	ReadFile(rel string) (*WorkspaceFile, error)
}

type workspaceService struct {
	root string
}

func NewWorkspaceService(root string) WorkspaceService {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return &workspaceService{root: abs}
}

func (s *workspaceService) contains(full string) (string, bool) {
	inside, err := filepath.Rel(s.root, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", false
	}
	if inside == "." {
		inside = ""
	}
	return inside, true
}

// resolve maps a slash separated path onto the workspace, refusing anything
// that lands outside it either textually or through a symlink.
func (s *workspaceService) resolve(rel string) (string, string, error) {
	outside := &transfer.ValidationError{Field: "path", Message: "path is outside the workspace"}

	rel = strings.TrimSpace(rel)
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	inside, ok := s.contains(full)
	if !ok {
		return "", "", outside
	}

	real, err := filepath.EvalSymlinks(full)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", "", ErrNotFound
	case err != nil:
		return "", "", err
	}
	if _, ok := s.contains(real); !ok {
		return "", "", outside
	}
	return real, filepath.ToSlash(inside), nil
}

func skipEntry(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

func (s *workspaceService) Tree(rel string, depth int) (*WorkspaceNode, error) {
	if depth <= 0 {
		depth = defaultTreeDepth
	}
	if depth > maxTreeDepth {
		depth = maxTreeDepth
	}

	full, relPath, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	node := newWorkspaceNode(info, relPath)
	if info.IsDir() {
		if err := s.fill(node, full, depth); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func newWorkspaceNode(info fs.FileInfo, relPath string) *WorkspaceNode {
	name := info.Name()
	if relPath == "" {
		name = "."
	}
	node := &WorkspaceNode{
		Name:    name,
		Path:    relPath,
		IsDir:   info.IsDir(),
		ModTime: info.ModTime().UTC(),
	}
	if !info.IsDir() {
		node.Size = info.Size()
	}
	return node
}

func (s *workspaceService) fill(node *WorkspaceNode, dir string, depth int) error {
	if depth == 0 {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if skipEntry(entry.Name()) || entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		child := newWorkspaceNode(info, strings.TrimPrefix(node.Path+"/"+entry.Name(), "/"))
		if entry.IsDir() {
			if err := s.fill(child, filepath.Join(dir, entry.Name()), depth-1); err != nil {
				return err
			}
		}
		node.Children = append(node.Children, child)
	}

	sort.Slice(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	return nil
}

func (s *workspaceService) ReadFile(rel string) (*WorkspaceFile, error) {
	full, relPath, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	for _, part := range strings.Split(relPath, "/") {
		if part != "" && skipEntry(part) {
			return nil, ErrNotFound
		}
	}

	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &transfer.ValidationError{Field: "path", Message: "path is a directory"}
	}

	data, err := io.ReadAll(io.LimitReader(f, maxWorkspaceFileBytes))
	if err != nil {
		return nil, err
	}

	file := &WorkspaceFile{
		Path:      relPath,
		Size:      info.Size(),
		Truncated: info.Size() > maxWorkspaceFileBytes,
	}
	if file.Truncated {
		data = trimPartialRune(data)
	}
	if !utf8.Valid(data) {
		file.Binary = true
		return file, nil
	}
	file.Content = string(data)
	return file, nil
}

// trimPartialRune drops a multi-byte character cut off at the end of data.
func trimPartialRune(data []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(data) > 0; i++ {
		r, size := utf8.DecodeLastRune(data)
		if r != utf8.RuneError || size != 1 {
			break
		}
		data = data[:len(data)-1]
	}
	return data
}
