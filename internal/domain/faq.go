package domain

import "time"

// FAQ is static reference content shown on the portal and fed to the
// AI draft prompt as context.
type FAQ struct {
	ID        string
	Question  string
	Answer    string
	Category  string
	Order     int
	CreatedAt time.Time
}
