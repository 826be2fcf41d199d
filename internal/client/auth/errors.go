package auth

import "errors"

// ErrSessionExpired means the refresh token was rejected; the user has
// to log in again.
var ErrSessionExpired = errors.New("session expired, please login again")
