package Assignments

import (
	"context"
	"testing"

	"Chronos/AppErrors"
	"Chronos/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestGraph(t *testing.T) (*Graph, *gorm.DB) {
	t.Helper()
	db, err := Models.OpenInMemory()
	require.NoError(t, err)
	return NewGraph(db), db
}

func createEmployee(t *testing.T, db *gorm.DB, email string) Models.Employee {
	t.Helper()
	employee := Models.Employee{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     email,
		IsActive:     true,
		IsVerified:   true,
		Permission:   Models.PermissionEmployee,
	}
	require.NoError(t, db.Create(&employee).Error)
	return employee
}

func sortedIDs(employees ...Models.Employee) []string {
	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}
	return normalizeIDs(ids)
}

// Every project membership must be mirrored by a default task membership.
func assertDefaultTaskInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var links []Models.EmployeeProject
	require.NoError(t, db.Find(&links).Error)
	for _, link := range links {
		var count int64
		require.NoError(t, db.Model(&Models.EmployeeTask{}).
			Joins("JOIN tasks ON tasks.id = employee_tasks.task_id").
			Where("employee_tasks.employee_id = ? AND tasks.project_id = ? AND tasks.is_default = ?", link.EmployeeID, link.ProjectID, true).
			Count(&count).Error)
		assert.Equal(t, int64(1), count, "employee %s project %s", link.EmployeeID, link.ProjectID)
	}
}

func TestCreateProjectWithMembersCreatesDefaultTask(t *testing.T) {
	ctx := context.Background()
	graph, db := newTestGraph(t)
	e1 := createEmployee(t, db, "e1@example.com")

	project, err := graph.CreateProjectWithMembers(ctx, ProjectInput{Name: "Alpha", EmployeeIDs: []string{e1.ID, e1.ID}})
	require.NoError(t, err)

	assert.True(t, project.IsActive)
	require.Len(t, project.Tasks, 1)
	assert.True(t, project.Tasks[0].IsDefault)
	assert.Equal(t, Models.DefaultTaskName, project.Tasks[0].Name)
	require.Len(t, project.Employees, 1)
	assert.Equal(t, e1.ID, project.Employees[0].ID)

	members, err := graph.DefaultTaskMembers(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{e1.ID}, members)
	assertDefaultTaskInvariant(t, db)
}

func TestCreateProjectWithUnknownEmployeeRollsBack(t *testing.T) {
	ctx := context.Background()
	graph, db := newTestGraph(t)

	_, err := graph.CreateProjectWithMembers(ctx, ProjectInput{Name: "Beta", EmployeeIDs: []string{"missing"}})
	require.Error(t, err)
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))

	var projects, tasks int64
	require.NoError(t, db.Model(&Models.Project{}).Count(&projects).Error)
	require.NoError(t, db.Model(&Models.Task{}).Count(&tasks).Error)
	assert.Zero(t, projects)
	assert.Zero(t, tasks)
}

func TestSetProjectMembersReplacesDefaultTaskMembers(t *testing.T) {
	ctx := context.Background()
	graph, db := newTestGraph(t)
	e1 := createEmployee(t, db, "e1@example.com")
	e2 := createEmployee(t, db, "e2@example.com")
	e3 := createEmployee(t, db, "e3@example.com")

	project, err := graph.CreateProjectWithMembers(ctx, ProjectInput{Name: "Alpha", EmployeeIDs: []string{e3.ID}})
	require.NoError(t, err)
	other, err := graph.CreateTask(ctx, TaskInput{ProjectID: project.ID, Name: "Design", EmployeeIDs: []string{e1.ID, e3.ID}})
	require.NoError(t, err)

	require.NoError(t, graph.SetProjectMembers(ctx, project.ID, []string{e1.ID, e2.ID}))
	members, err := graph.DefaultTaskMembers(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, sortedIDs(e1, e2), members)
	assertDefaultTaskInvariant(t, db)

	require.NoError(t, graph.SetProjectMembers(ctx, project.ID, []string{}))
	members, err = graph.DefaultTaskMembers(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
	projectMembers, err := graph.ProjectMembers(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, projectMembers)

	taskMembers, err := graph.TaskMembers(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, sortedIDs(e1, e3), taskMembers)
}

func TestSetProjectMembersFailureLeavesMembershipIntact(t *testing.T) {
	ctx := context.Background()
	graph, db := newTestGraph(t)
	e1 := createEmployee(t, db, "e1@example.com")

	project, err := graph.CreateProjectWithMembers(ctx, ProjectInput{Name: "Alpha", EmployeeIDs: []string{e1.ID}})
	require.NoError(t, err)

	err = graph.SetProjectMembers(ctx, project.ID, []string{e1.ID, "ghost"})
	require.Error(t, err)
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))

	members, err := graph.DefaultTaskMembers(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{e1.ID}, members)

	err = graph.SetProjectMembers(ctx, "nope", nil)
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))
}

func TestSetEmployeeProjectsKeepsNonDefaultTasks(t *testing.T) {
	ctx := context.Background()
	graph, db := newTestGraph(t)
	e1 := createEmployee(t, db, "e1@example.com")

	alpha, err := graph.CreateProjectWithMembers(ctx, ProjectInput{Name: "Alpha", EmployeeIDs: []string{e1.ID}})
	require.NoError(t, err)
	beta, err := graph.CreateProjectWithMembers(ctx, ProjectInput{Name: "Beta"})
	require.NoError(t, err)
	design, err := graph.CreateTask(ctx, TaskInput{ProjectID: alpha.ID, Name: "Design", EmployeeIDs: []string{e1.ID}})
	require.NoError(t, err)

	require.NoError(t, graph.SetEmployeeProjects(ctx, e1.ID, []string{beta.ID}))
	assertDefaultTaskInvariant(t, db)

	alphaMembers, err := graph.DefaultTaskMembers(ctx, alpha.ID)
	require.NoError(t, err)
	assert.Empty(t, alphaMembers)
	betaMembers, err := graph.DefaultTaskMembers(ctx, beta.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{e1.ID}, betaMembers)

	isMember, err := graph.IsTaskMember(ctx, e1.ID, design.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	projects, err := graph.ProjectsOf(ctx, e1.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, beta.ID, projects[0].ID)

	err = graph.SetEmployeeProjects(ctx, e1.ID, []string{"missing"})
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))
}

func TestDefaultTaskRules(t *testing.T) {
	ctx := context.Background()
	graph, db := newTestGraph(t)
	e1 := createEmployee(t, db, "e1@example.com")

	project, err := graph.CreateProjectWithMembers(ctx, ProjectInput{Name: "Alpha"})
	require.NoError(t, err)
	defaultTask, err := graph.DefaultTaskOf(ctx, project.ID)
	require.NoError(t, err)

	err = graph.DeactivateTask(ctx, defaultTask.ID)
	assert.True(t, AppErrors.Is(err, AppErrors.KindValidation))

	inactive := false
	_, err = graph.UpdateTask(ctx, defaultTask.ID, TaskUpdate{IsActive: &inactive})
	assert.True(t, AppErrors.Is(err, AppErrors.KindValidation))

	err = graph.AssignEmployeeToTask(ctx, e1.ID, defaultTask.ID)
	assert.True(t, AppErrors.Is(err, AppErrors.KindValidation))

	_, err = graph.CreateTask(ctx, TaskInput{ProjectID: project.ID, Name: "Second default", IsDefault: true})
	assert.True(t, AppErrors.Is(err, AppErrors.KindValidation))

	duplicate := Models.NewDefaultTask(project.ID)
	err = db.Create(&duplicate).Error
	require.Error(t, err)
	assert.True(t, Models.IsDuplicateKey(err))
}

func TestTaskMembershipOperations(t *testing.T) {
	ctx := context.Background()
	graph, db := newTestGraph(t)
	e1 := createEmployee(t, db, "e1@example.com")
	e2 := createEmployee(t, db, "e2@example.com")

	project, err := graph.CreateProjectWithMembers(ctx, ProjectInput{Name: "Alpha"})
	require.NoError(t, err)
	task, err := graph.CreateTask(ctx, TaskInput{ProjectID: project.ID, Name: "Build"})
	require.NoError(t, err)

	require.NoError(t, graph.AssignEmployeeToTask(ctx, e1.ID, task.ID))
	require.NoError(t, graph.AssignEmployeesToTask(ctx, task.ID, []string{e1.ID, e2.ID}))
	members, err := graph.TaskMembers(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, sortedIDs(e1, e2), members)

	require.NoError(t, graph.SetTaskMembers(ctx, task.ID, []string{e2.ID}))
	members, err = graph.TaskMembers(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{e2.ID}, members)

	tasks, err := graph.TasksOf(ctx, e2.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].Project)
	assert.Equal(t, "Alpha", tasks[0].Project.Name)

	require.NoError(t, graph.DeactivateTask(ctx, task.ID))
	tasks, err = graph.TasksOf(ctx, e2.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	byProject, err := graph.TasksByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.True(t, byProject[0].IsDefault)

	err = graph.AssignEmployeeToTask(ctx, e1.ID, "missing")
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))
}

func TestUpdateAndDeactivateProject(t *testing.T) {
	ctx := context.Background()
	graph, db := newTestGraph(t)
	e1 := createEmployee(t, db, "e1@example.com")

	project, err := graph.CreateProjectWithMembers(ctx, ProjectInput{Name: "Alpha"})
	require.NoError(t, err)

	name := "Alpha 2"
	members := []string{e1.ID}
	updated, err := graph.UpdateProject(ctx, project.ID, ProjectUpdate{Name: &name, EmployeeIDs: &members})
	require.NoError(t, err)
	assert.Equal(t, "Alpha 2", updated.Name)
	require.Len(t, updated.Employees, 1)
	assertDefaultTaskInvariant(t, db)

	require.NoError(t, graph.DeactivateProject(ctx, project.ID))
	detail, err := graph.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsActive)

	projects, err := graph.ProjectsOf(ctx, e1.ID)
	require.NoError(t, err)
	assert.Empty(t, projects)

	all, err := graph.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = graph.DeactivateProject(ctx, "missing")
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))
}
