package report

import "errors"

var (
	ErrInvalidMonth = errors.New("Invalid month")
	ErrInvalidYear  = errors.New("Invalid year")
)
