// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/academy-backend/internal/core"
)

type fakeRepo struct {
	users map[string]*User

	roleWrites   int
	statusWrites int
	deletes      int
}

func newFakeRepo(users ...*User) *fakeRepo {
	f := &fakeRepo{users: map[string]*User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) UpdateProfile(_ context.Context, u *User) error {
	if _, ok := f.users[u.ID]; !ok {
		return core.ErrNotFound
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) UpdateRole(_ context.Context, id, role string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.Role = role
	f.roleWrites++
	return nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id, status string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.Status = status
	f.statusWrites++
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.users, id)
	f.deletes++
	return nil
}

func (f *fakeRepo) List(
	_ context.Context,
	_ ListUsersParams,
) ([]User, int, error) {
	var out []User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeRepo) RecordLoginSuccess(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.LoginCount++
	u.FailedLoginAttempts = 0
	return nil
}

func (f *fakeRepo) RecordLoginFailure(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.FailedLoginAttempts++
	return nil
}

func (f *fakeRepo) SetResetCode(
	_ context.Context,
	_, _ string,
	_ time.Time,
) error {
	return nil
}

func (f *fakeRepo) ConsumeResetCode(
	_ context.Context,
	_, _, _ string,
) error {
	return nil
}

func testUser(id, role string) *User {
	return &User{
		ID:            id,
		Email:         id + "@example.com",
		FullName:      "User " + id,
		Role:          role,
		Status:        StatusActive,
		EmailVerified: true,
	}
}

func TestUpdateUserRoleSelfTargetForbidden(t *testing.T) {
	repo := newFakeRepo(testUser("admin-1", RoleAdmin))
	svc := NewService(repo)

	_, err := svc.UpdateUserRole(
		context.Background(), "admin-1", "admin-1", RoleUser)
	assert.ErrorIs(t, err, core.ErrForbidden)

	// The guard fires before any write.
	assert.Zero(t, repo.roleWrites)
	assert.Equal(t, RoleAdmin, repo.users["admin-1"].Role)
}

func TestUpdateUserRole(t *testing.T) {
	repo := newFakeRepo(
		testUser("admin-1", RoleAdmin),
		testUser("user-1", RoleUser),
	)
	svc := NewService(repo)

	updated, err := svc.UpdateUserRole(
		context.Background(), "admin-1", "user-1", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, updated.Role)
}

func TestUpdateUserRoleInvalidRole(t *testing.T) {
	repo := newFakeRepo(
		testUser("admin-1", RoleAdmin),
		testUser("user-1", RoleUser),
	)
	svc := NewService(repo)

	_, err := svc.UpdateUserRole(
		context.Background(), "admin-1", "user-1", "superuser")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Zero(t, repo.roleWrites)
}

func TestUpdateUserStatusSelfTargetForbidden(t *testing.T) {
	repo := newFakeRepo(testUser("admin-1", RoleAdmin))
	svc := NewService(repo)

	_, err := svc.UpdateUserStatus(
		context.Background(), "admin-1", "admin-1", StatusSuspended)
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Zero(t, repo.statusWrites)
}

func TestUpdateUserStatusSuspend(t *testing.T) {
	repo := newFakeRepo(
		testUser("admin-1", RoleAdmin),
		testUser("user-1", RoleUser),
	)
	svc := NewService(repo)

	updated, err := svc.UpdateUserStatus(
		context.Background(), "admin-1", "user-1", StatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, updated.Status)
	assert.False(t, updated.IsActive())
}

func TestDeleteUserSelfTargetForbidden(t *testing.T) {
	repo := newFakeRepo(testUser("admin-1", RoleAdmin))
	svc := NewService(repo)

	err := svc.DeleteUser(context.Background(), "admin-1", "admin-1")
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Zero(t, repo.deletes)
}

func TestDeleteUser(t *testing.T) {
	repo := newFakeRepo(
		testUser("admin-1", RoleAdmin),
		testUser("user-1", RoleUser),
	)
	svc := NewService(repo)

	require.NoError(t,
		svc.DeleteUser(context.Background(), "admin-1", "user-1"))

	_, err := svc.GetUser(context.Background(), "user-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateMePartialFields(t *testing.T) {
	repo := newFakeRepo(testUser("user-1", RoleUser))
	svc := NewService(repo)

	newName := "Renamed Student"
	updated, err := svc.UpdateMe(context.Background(), "user-1",
		UpdateProfileRequest{FullName: &newName})
	require.NoError(t, err)

	assert.Equal(t, "Renamed Student", updated.FullName)
	// Untouched fields survive a partial update.
	assert.Equal(t, "user-1@example.com", updated.Email)
}

func TestUpdateMeRequiresUserID(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.UpdateMe(
		context.Background(), "", UpdateProfileRequest{})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}
