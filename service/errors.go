package service

import "errors"

var (
	ErrTemplateNotFound    = errors.New("template not found")
	ErrScriptNotFound      = errors.New("script not found")
	ErrQuickActionNotFound = errors.New("quick action not found")
	ErrInvalidTemplate     = errors.New("template name and content are required")
	ErrInvalidScript       = errors.New("script title and content are required")
	ErrInvalidQuickAction  = errors.New("quick action name and content are required")
	ErrSettingNotFound     = errors.New("setting key not found")
)
