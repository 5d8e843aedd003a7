package config

import "errors"

// ErrMissingCredentials is returned when a front end lacks a required secret.
var ErrMissingCredentials = errors.New("missing credentials")
