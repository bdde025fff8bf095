package middleware_test

import (
	"testing"

	"lprime.com/licserver/internal/middleware"
)

type loginBody struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func TestValidator(t *testing.T) {
	v := middleware.NewValidator()

	tests := []struct {
		name string
		in   loginBody
		want string
	}{
		{"valid", loginBody{Username: "admin", Password: "secret1"}, ""},
		{"missing username", loginBody{Password: "secret1"}, "username is required"},
		{"short password", loginBody{Username: "admin", Password: "abc"}, "password must be at least 6 characters"},
		{"bad email", loginBody{Username: "admin", Password: "secret1", Email: "nope"}, "email must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			if tt.want == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %q, got nil", tt.want)
			}
			if err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}
