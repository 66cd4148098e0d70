package access

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskcrew-dev/taskcrew/db"
	"github.com/taskcrew-dev/taskcrew/internal/models"
	"github.com/taskcrew-dev/taskcrew/internal/types"
)

// seeded fixture: admin creates the team, member joins, outsider stays out.
type fixture struct {
	admin    models.User
	member   models.User
	outsider models.User
	team     models.Team

	personalTask models.Task // owned by admin
	teamTask     models.Task // created by member
}

func setupFixture(t *testing.T) fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})

	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	db.DB = gdb

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	f := fixture{
		admin:    models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"},
		member:   models.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "x"},
		outsider: models.User{Name: "Carol", Email: "carol@example.com", PasswordHash: "x"},
	}

	for _, user := range []*models.User{&f.admin, &f.member, &f.outsider} {
		if err := gdb.Create(user).Error; err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}
	}

	f.team = models.Team{Name: "Eng", Code: "ABC123", CreatedBy: f.admin.ID}

	if err := gdb.Create(&f.team).Error; err != nil {
		t.Fatalf("failed to seed team: %v", err)
	}

	memberships := []models.TeamMember{
		{TeamID: f.team.ID, UserID: f.admin.ID, Role: types.RoleAdmin},
		{TeamID: f.team.ID, UserID: f.member.ID, Role: types.RoleMember},
	}

	for i := range memberships {
		if err := gdb.Create(&memberships[i]).Error; err != nil {
			t.Fatalf("failed to seed membership: %v", err)
		}
	}

	f.personalTask = models.NewPersonalTask(f.admin.ID, "file taxes")
	f.teamTask = models.NewTeamTask(f.team.ID, f.member.ID, "ship release")

	for _, task := range []*models.Task{&f.personalTask, &f.teamTask} {
		if err := gdb.Create(task).Error; err != nil {
			t.Fatalf("failed to seed task: %v", err)
		}
	}

	return f
}

func TestIsTeamMember(t *testing.T) {
	f := setupFixture(t)

	tests := []struct {
		name   string
		userID uint
		want   bool
	}{
		{"admin is a member", f.admin.ID, true},
		{"member is a member", f.member.ID, true},
		{"outsider is not", f.outsider.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsTeamMember(tt.userID, f.team.ID)
			if err != nil {
				t.Fatalf("IsTeamMember() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsTeamMember() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTeamAdminOrCreator(t *testing.T) {
	f := setupFixture(t)

	tests := []struct {
		name   string
		userID uint
		want   bool
	}{
		{"creator", f.admin.ID, true},
		{"plain member", f.member.ID, false},
		{"outsider", f.outsider.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsTeamAdminOrCreator(tt.userID, f.team.ID)
			if err != nil {
				t.Fatalf("IsTeamAdminOrCreator() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsTeamAdminOrCreator() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPromotedMemberCountsAsAdmin(t *testing.T) {
	f := setupFixture(t)

	// Role changes must take effect on the next decision, no caching.
	err := db.DB.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", f.team.ID, f.member.ID).
		Update("role", types.RoleAdmin).Error

	if err != nil {
		t.Fatalf("failed to promote member: %v", err)
	}

	got, err := IsTeamAdminOrCreator(f.member.ID, f.team.ID)
	if err != nil {
		t.Fatalf("IsTeamAdminOrCreator() error = %v", err)
	}
	if !got {
		t.Error("promoted member should count as admin immediately")
	}
}

func TestCanReadTask(t *testing.T) {
	f := setupFixture(t)

	tests := []struct {
		name   string
		userID uint
		task   *models.Task
		want   bool
	}{
		{"owner reads personal task", f.admin.ID, &f.personalTask, true},
		{"member cannot read another's personal task", f.member.ID, &f.personalTask, false},
		{"member reads team task", f.admin.ID, &f.teamTask, true},
		{"creator reads team task", f.member.ID, &f.teamTask, true},
		{"outsider denied team task", f.outsider.ID, &f.teamTask, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanReadTask(tt.userID, tt.task)
			if err != nil {
				t.Fatalf("CanReadTask() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanReadTask() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanDeleteTask(t *testing.T) {
	f := setupFixture(t)

	tests := []struct {
		name   string
		userID uint
		task   *models.Task
		want   bool
	}{
		{"owner deletes personal task", f.admin.ID, &f.personalTask, true},
		{"member cannot delete another's personal task", f.member.ID, &f.personalTask, false},
		{"task creator deletes team task", f.member.ID, &f.teamTask, true},
		{"team admin deletes team task", f.admin.ID, &f.teamTask, true},
		{"outsider denied", f.outsider.ID, &f.teamTask, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanDeleteTask(tt.userID, tt.task)
			if err != nil {
				t.Fatalf("CanDeleteTask() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanDeleteTask() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlainMemberCannotDeleteOthersTeamTask(t *testing.T) {
	f := setupFixture(t)

	// A second plain member who did not create the task.
	dave := models.User{Name: "Dave", Email: "dave@example.com", PasswordHash: "x"}
	if err := db.DB.Create(&dave).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	if err := db.DB.Create(&models.TeamMember{TeamID: f.team.ID, UserID: dave.ID, Role: types.RoleMember}).Error; err != nil {
		t.Fatalf("failed to seed membership: %v", err)
	}

	got, err := CanDeleteTask(dave.ID, &f.teamTask)
	if err != nil {
		t.Fatalf("CanDeleteTask() error = %v", err)
	}
	if got {
		t.Error("a plain member who is neither creator nor admin must not delete the task")
	}

	// But mutation is open to any member.
	got, err = CanMutateTask(dave.ID, &f.teamTask)
	if err != nil {
		t.Fatalf("CanMutateTask() error = %v", err)
	}
	if !got {
		t.Error("any member may update a team task")
	}
}

func TestCanAssign(t *testing.T) {
	f := setupFixture(t)

	eligible, err := CanAssign(f.member.ID, f.team.ID)
	if err != nil {
		t.Fatalf("CanAssign() error = %v", err)
	}
	if !eligible {
		t.Error("a member should be assignable")
	}

	eligible, err = CanAssign(f.outsider.ID, f.team.ID)
	if err != nil {
		t.Fatalf("CanAssign() error = %v", err)
	}
	if eligible {
		t.Error("a non-member must not be assignable")
	}
}

func TestCanDeleteAttachment(t *testing.T) {
	f := setupFixture(t)

	attachment := models.TaskAttachment{
		Filename:     "blob.png",
		OriginalName: "diagram.png",
		Path:         "uploads/blob.png",
		TaskID:       f.teamTask.ID,
		UploadedBy:   f.member.ID,
	}

	if err := db.DB.Create(&attachment).Error; err != nil {
		t.Fatalf("failed to seed attachment: %v", err)
	}

	tests := []struct {
		name   string
		userID uint
		want   bool
	}{
		{"uploader", f.member.ID, true},
		{"team admin", f.admin.ID, true},
		{"outsider", f.outsider.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanDeleteAttachment(tt.userID, &attachment, &f.teamTask)
			if err != nil {
				t.Fatalf("CanDeleteAttachment() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanDeleteAttachment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanComment(t *testing.T) {
	f := setupFixture(t)

	got, err := CanComment(f.member.ID, &f.teamTask)
	if err != nil {
		t.Fatalf("CanComment() error = %v", err)
	}
	if !got {
		t.Error("a member should be able to comment on a team task")
	}

	got, err = CanComment(f.outsider.ID, &f.teamTask)
	if err != nil {
		t.Fatalf("CanComment() error = %v", err)
	}
	if got {
		t.Error("a non-member must not comment on a team task")
	}

	// Personal tasks have no comment surface at all, even for the owner.
	got, err = CanComment(f.admin.ID, &f.personalTask)
	if err != nil {
		t.Fatalf("CanComment() error = %v", err)
	}
	if got {
		t.Error("comments are only defined for team tasks")
	}
}

func TestRemovedMemberLosesAccessImmediately(t *testing.T) {
	f := setupFixture(t)

	err := db.DB.Where("team_id = ? AND user_id = ?", f.team.ID, f.member.ID).
		Delete(&models.TeamMember{}).Error

	if err != nil {
		t.Fatalf("failed to remove membership: %v", err)
	}

	got, err := CanReadTask(f.member.ID, &f.teamTask)
	if err != nil {
		t.Fatalf("CanReadTask() error = %v", err)
	}
	if got {
		t.Error("a removed member must lose task access on the next decision")
	}
}
