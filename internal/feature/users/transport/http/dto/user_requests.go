// Package dto defines the request bodies of the users feature.
package dto

import "natours/internal/domain/entity"

// UpdateMeReq is the body of PATCH /updateMe. Password fields are accepted
// only to be rejected with a pointer to /updateMyPassword.
type UpdateMeReq struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=255"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// HasPassword reports whether the body tries to change the password.
func (r UpdateMeReq) HasPassword() bool {
	return r.Password != nil || r.PasswordConfirm != nil
}

// UpdateUserReq is the body of PATCH /users/:id.
type UpdateUserReq struct {
	Name  *string      `json:"name" binding:"omitempty,min=1,max=255"`
	Email *string      `json:"email" binding:"omitempty,email"`
	Photo *string      `json:"photo" binding:"omitempty,max=255"`
	Role  *entity.Role `json:"role" binding:"omitempty,oneof=user guide lead-guide admin"`
}
