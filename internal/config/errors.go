package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrMigrateDatabaseFmt    = "Failed to migrate database: %v"

	// Auth errors
	ErrCreateProviderFmt   = "Failed to create provider: %v"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests. Please wait a bit and try again."

	// Request errors
	ErrInvalidJSON  = "Invalid request body"
	ErrPostNotFound = "Post not found"

	// Upload errors
	ErrNoFile       = "No file provided"
	ErrInvalidType  = "Invalid file type. Use images, MP4 videos, or MP3 audio."
	ErrFileTooLarge = "File size exceeds the upload limit"
	ErrUploadFailed = "Upload failed"
)
