// Package usecase implements the business logic for the auth feature.
package usecase

// Messages of the operational errors returned by the auth usecase.
const (
	MsgMissingCredentials = "Please provide email and password!"
	MsgBadCredentials     = "Incorrect email or password"
	MsgNoUserWithEmail    = "There is no user with that email address."
	MsgResetTokenInvalid  = "Token is invalid or has expired"
	MsgWrongPassword      = "Your current password is wrong."
	MsgEmailFailed        = "There was an error sending the email. Try again later!"
	MsgPasswordTooLong    = "Password must be at most 72 bytes long."
)
