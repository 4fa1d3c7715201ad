package Commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Chronos/Assignments"
	"Chronos/Identity"
	"Chronos/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const seedYAML = `
employees:
  - email: Ada@Example.com
    password: changeme
    firstName: Ada
    lastName: Lovelace
    permission: 3
  - email: bob@example.com
    password: changeme
    firstName: Bob
projects:
  - name: Alpha
    description: First project
    members: [ada@example.com, bob@example.com]
    tasks:
      - name: Design
        members: [bob@example.com]
`

func newSeedTarget(t *testing.T) (*Identity.Directory, *Assignments.Graph) {
	t.Helper()
	db, err := Models.OpenInMemory()
	require.NoError(t, err)
	directory := Identity.NewDirectory(db, Identity.NewTokenIssuer("seed-secret", time.Hour), nil, bcrypt.MinCost)
	return directory, Assignments.NewGraph(db)
}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestApplySeed(t *testing.T) {
	ctx := context.Background()
	directory, graph := newSeedTarget(t)

	seed, err := readSeed(writeSeed(t, seedYAML))
	require.NoError(t, err)
	require.NoError(t, applySeed(ctx, directory, graph, seed))

	employees, err := directory.List(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)

	byEmail := map[string]Models.Employee{}
	for _, e := range employees {
		byEmail[e.Email] = e
	}
	ada := byEmail["ada@example.com"]
	assert.True(t, ada.IsVerified)
	assert.True(t, ada.IsActive)
	assert.Equal(t, Models.PermissionManager, ada.Permission)
	assert.Equal(t, Models.PermissionEmployee, byEmail["bob@example.com"].Permission)

	projects, err := graph.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Alpha", projects[0].Name)
	assert.Len(t, projects[0].Employees, 2)
	assert.Len(t, projects[0].Tasks, 2)

	tasks, err := graph.TasksOf(ctx, byEmail["bob@example.com"].ID)
	require.NoError(t, err)
	names := []string{}
	for _, task := range tasks {
		names = append(names, task.Name)
	}
	assert.ElementsMatch(t, []string{Models.DefaultTaskName, "Design"}, names)

	// Known emails are skipped on a second run.
	require.NoError(t, applySeed(ctx, directory, graph, &Seed{Employees: seed.Employees}))
	employees, err = directory.List(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 2)
}

func TestApplySeedUnknownMember(t *testing.T) {
	directory, graph := newSeedTarget(t)
	seed := &Seed{Projects: []SeedProject{{Name: "Beta", Members: []string{"ghost@example.com"}}}}

	err := applySeed(context.Background(), directory, graph, seed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost@example.com")

	projects, err := graph.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestReadSeedErrors(t *testing.T) {
	_, err := readSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = readSeed(writeSeed(t, "employees: [unterminated"))
	assert.Error(t, err)
}
