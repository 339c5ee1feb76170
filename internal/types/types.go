// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, and utils can all import types without depending
// on each other.
package types

// Student represents a student roster record.
//
// The same struct is used for the add-student payload (SerialNumber is
// ignored there and assigned by storage) and for listing results.
// Password holds the bcrypt hash once the record has been stored.
type Student struct {
	SerialNumber int64  `json:"serialNumber" bson:"serialNumber"`
	PRN          string `json:"prn"          bson:"prn"      validate:"required,prn"`
	Password     string `json:"password"     bson:"password" validate:"required"`
	Mobile       string `json:"mobile"       bson:"mobile"   validate:"required"`
	Branch       string `json:"branch"       bson:"branch"   validate:"required"`
	Year         string `json:"year"         bson:"year"     validate:"required"`
	Section      string `json:"section"      bson:"section"  validate:"required"`
}

// StudentFilter narrows a student listing. A nil Branch or Year matches
// any value; a non-nil one matches exactly, including the empty string.
type StudentFilter struct {
	Branch *string
	Year   *string
}

// PRN is the projection returned by the PRN listing.
type PRN struct {
	PRN string `json:"prn" bson:"prn"`
}

// Credentials is the login payload.
type Credentials struct {
	PRN      string `json:"prn"`
	Password string `json:"password"`
}

// RemoveRequest is the body of a remove-student call.
type RemoveRequest struct {
	Section string `json:"section"`
}

// LoginResult is the body of a login response.
type LoginResult struct {
	Success bool `json:"success"`
}
