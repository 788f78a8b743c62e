package question

import "errors"

var (
	errGeneratorUnavailable = errors.New("text generator not configured")
	errNoValidRecords       = errors.New("generator response contained no valid records")
)
