package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrNoInputFiles        = errors.New("no question bank files found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyCategory       = errors.New("category must not be empty")
	ErrTooManyAnswers      = errors.New("question has more answers than option letters")
	ErrInvalidRecord       = errors.New("question record is incomplete")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrSourceNotConfigured = errors.New("no question bank source configured")
)
