package projects

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/worklog/pkg/models"
)

const registryYAML = `
projects:
  - name: platform
    description: Backend services
    paths:
      - /src/platform
    repos:
      - acme/platform-api
  - name: billing
    paths:
      - /src/platform/billing
  - name: website
    repos:
      - web
`

func loadRegistry(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yml")
	require.NoError(t, os.WriteFile(path, []byte(registryYAML), 0600))
	r, err := Load(path)
	require.NoError(t, err)
	return r
}

func withMeta(meta map[string]any) models.WorkItem {
	return models.WorkItem{Source: models.SourceClaude, Timestamp: time.Now(), Title: "x", Metadata: meta}
}

func TestLoadMissingFile(t *testing.T) {
	r, err := Load("/nonexistent/path/that/does/not/exist.yml")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Empty(t, r.All())
	assert.Empty(t, r.Names())
}

func TestLoadValidYAML(t *testing.T) {
	r := loadRegistry(t)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "platform", all[0].Name)
	assert.Equal(t, []string{"billing", "platform", "website"}, r.Names())

	p, ok := r.Get("platform")
	require.True(t, ok)
	assert.Equal(t, "Backend services", p.Description)

	_, ok = r.Get("nonexistent")
	assert.False(t, ok)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("projects: [unclosed"), 0600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	r := loadRegistry(t)

	tests := []struct {
		name     string
		meta     map[string]any
		wantName string
		wantPath string
	}{
		{name: "cwd prefix", meta: map[string]any{"cwd": "/src/platform/api"}, wantName: "platform", wantPath: "/src/platform"},
		{name: "longest prefix wins", meta: map[string]any{"cwd": "/src/platform/billing/invoices"}, wantName: "billing", wantPath: "/src/platform/billing"},
		{name: "exact path", meta: map[string]any{"repoPath": "/src/platform"}, wantName: "platform", wantPath: "/src/platform"},
		{name: "no partial segment match", meta: map[string]any{"cwd": "/src/platformer"}, wantName: "platformer", wantPath: "/src/platformer"},
		{name: "github repo", meta: map[string]any{"repo": "acme/platform-api"}, wantName: "platform", wantPath: "/src/platform"},
		{name: "bare repo name", meta: map[string]any{"repo": "acme/web"}, wantName: "website", wantPath: ""},
		{name: "unknown repo", meta: map[string]any{"repo": "acme/tools"}, wantName: "tools", wantPath: ""},
		{name: "nothing", meta: nil, wantName: Unassigned, wantPath: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, path := r.Resolve(withMeta(tt.meta))
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestGroupItems(t *testing.T) {
	r := loadRegistry(t)
	items := []models.WorkItem{
		withMeta(map[string]any{"cwd": "/src/platform/api"}),
		withMeta(nil),
		withMeta(map[string]any{"repo": "acme/platform-api"}),
	}

	groups := r.GroupItems(items)
	require.Len(t, groups, 2)
	assert.Equal(t, "platform", groups[0].Name)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, Unassigned, groups[1].Name)
}
