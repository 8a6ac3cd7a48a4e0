package api

import (
	"fmt"
	"strings"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MinPasswordLength int
	MaxTitleLength    int
	MaxBodyLength     int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinPasswordLength: 8,
		MaxTitleLength:    256,
		MaxBodyLength:     64 * 1024,
	}
}

// ValidateRegister checks a RegisterRequest. It returns an *APIError
// describing the first validation failure, or nil if the request is valid.
func ValidateRegister(req *RegisterRequest, cfg ValidationConfig) *APIError {
	if strings.TrimSpace(req.Username) == "" {
		return NewUnprocessableError("username", "username is required")
	}

	if !strings.Contains(req.Email, "@") {
		return NewUnprocessableError("email", "email is not valid")
	}

	if len(req.Password) < cfg.MinPasswordLength {
		return NewUnprocessableError("password",
			fmt.Sprintf("password must be at least %d characters", cfg.MinPasswordLength))
	}

	return nil
}

// ValidateLogin checks a LoginRequest.
func ValidateLogin(req *LoginRequest) *APIError {
	if req.Username == "" {
		return NewUnprocessableError("username", "username is required")
	}
	if req.Password == "" {
		return NewUnprocessableError("password", "password is required")
	}
	return nil
}

// ValidateUserUpdate checks a UserUpdateRequest. At least one field must
// be present.
func ValidateUserUpdate(req *UserUpdateRequest) *APIError {
	if req.Username == nil && req.Email == nil {
		return NewInvalidRequestError("", "at least one field is required")
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		return NewUnprocessableError("username", "username must not be empty")
	}
	if req.Email != nil && !strings.Contains(*req.Email, "@") {
		return NewUnprocessableError("email", "email is not valid")
	}
	return nil
}

// ValidatePost checks a PostRequest.
func ValidatePost(req *PostRequest, cfg ValidationConfig) *APIError {
	if strings.TrimSpace(req.Title) == "" {
		return NewUnprocessableError("title", "title is required")
	}
	if len(req.Title) > cfg.MaxTitleLength {
		return NewUnprocessableError("title",
			fmt.Sprintf("title exceeds maximum of %d characters", cfg.MaxTitleLength))
	}
	if strings.TrimSpace(req.Description) == "" {
		return NewUnprocessableError("description", "description is required")
	}
	if len(req.Description) > cfg.MaxBodyLength {
		return NewUnprocessableError("description",
			fmt.Sprintf("description exceeds maximum of %d characters", cfg.MaxBodyLength))
	}
	return nil
}

// ValidatePostUpdate checks a PostUpdateRequest. At least one field must
// be present.
func ValidatePostUpdate(req *PostUpdateRequest, cfg ValidationConfig) *APIError {
	if req.Title == nil && req.Description == nil {
		return NewInvalidRequestError("", "at least one field is required")
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return NewUnprocessableError("title", "title must not be empty")
		}
		if len(*req.Title) > cfg.MaxTitleLength {
			return NewUnprocessableError("title",
				fmt.Sprintf("title exceeds maximum of %d characters", cfg.MaxTitleLength))
		}
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return NewUnprocessableError("description", "description must not be empty")
	}
	return nil
}

// ValidateComment checks a CommentRequest.
func ValidateComment(req *CommentRequest, cfg ValidationConfig) *APIError {
	if strings.TrimSpace(req.Body) == "" {
		return NewUnprocessableError("body", "body is required")
	}
	if len(req.Body) > cfg.MaxBodyLength {
		return NewUnprocessableError("body",
			fmt.Sprintf("body exceeds maximum of %d characters", cfg.MaxBodyLength))
	}
	return nil
}

// ValidateCommentUpdate checks a CommentUpdateRequest.
func ValidateCommentUpdate(req *CommentUpdateRequest, cfg ValidationConfig) *APIError {
	if req.Body == nil {
		return NewInvalidRequestError("", "at least one field is required")
	}
	if strings.TrimSpace(*req.Body) == "" {
		return NewUnprocessableError("body", "body must not be empty")
	}
	if len(*req.Body) > cfg.MaxBodyLength {
		return NewUnprocessableError("body",
			fmt.Sprintf("body exceeds maximum of %d characters", cfg.MaxBodyLength))
	}
	return nil
}
