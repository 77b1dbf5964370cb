// Package store holds the in-session job and resume state. Stores are created
// once at startup and injected wherever they are read or mutated.
package store

import "errors"

var (
	// ErrJobNotFound is returned when no job has the requested id.
	ErrJobNotFound = errors.New("job not found")
	// ErrResumeNotFound is returned when no resume has the requested id.
	ErrResumeNotFound = errors.New("resume not found")
	// ErrSkillNotFound is returned when a resume has no skill with the requested name.
	ErrSkillNotFound = errors.New("skill not found")
	// ErrNoActiveResume is returned when an operation needs the active resume and none exists.
	ErrNoActiveResume = errors.New("no active resume")
	// ErrValidation is returned for rejected input such as an empty name or an out-of-range rating.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyRefined is returned when a resume is refined a second time.
	ErrAlreadyRefined = errors.New("profile already refined")
)

var (
	// ErrUserNotFound is returned when no account matches an id or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when an account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
)
