package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want bool
	}{
		{name: "matrix admin", user: &User{Role: "matrix_admin"}, want: true},
		{name: "role admin", user: &User{Role: "role_admin"}, want: true},
		{name: "data admin", user: &User{Role: "data_admin"}, want: false},
		{name: "nil", user: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.IsAdmin())
		})
	}
}
