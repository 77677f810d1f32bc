package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestUserFilter_Matches(t *testing.T) {
	admin := User{IsAdmin: true}
	blockedAdmin := User{IsAdmin: true, IsBlocked: true}
	plain := User{}

	tests := []struct {
		name   string
		filter UserFilter
		user   User
		want   bool
	}{
		{"empty filter matches all", UserFilter{}, blockedAdmin, true},
		{"admin only", UserFilter{IsAdmin: ptr(true)}, admin, true},
		{"admin only rejects plain", UserFilter{IsAdmin: ptr(true)}, plain, false},
		{"conjunction", UserFilter{IsAdmin: ptr(true), IsBlocked: ptr(false)}, admin, true},
		{"conjunction rejects blocked", UserFilter{IsAdmin: ptr(true), IsBlocked: ptr(false)}, blockedAdmin, false},
		{"not blocked matches plain", UserFilter{IsBlocked: ptr(false)}, plain, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.user))
		})
	}
}

func TestUserPatch_Apply(t *testing.T) {
	u := User{ID: "1", Name: "Ann", Email: "a@x.com", Password: "hash"}

	UserPatch{Name: ptr("Anna"), IsAdmin: ptr(true)}.Apply(&u)

	assert.Equal(t, "1", u.ID)
	assert.Equal(t, "Anna", u.Name)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "hash", u.Password)
	assert.True(t, u.IsAdmin)
	assert.False(t, u.IsBlocked)
}

func TestUserPatch_IsEmpty(t *testing.T) {
	assert.True(t, UserPatch{}.IsEmpty())
	assert.False(t, UserPatch{EmailVerified: ptr(false)}.IsEmpty())
}
