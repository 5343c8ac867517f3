package dto

// ForgotPasswordReq is the body of POST /forgotPassword.
type ForgotPasswordReq struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordReq is the body of PATCH /resetPassword/:token.
type ResetPasswordReq struct {
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// UpdatePasswordReq is the body of PATCH /updateMyPassword.
type UpdatePasswordReq struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}
