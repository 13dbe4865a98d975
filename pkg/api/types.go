// Copyright (C) 2025 Joshua Goldstein

// Package api talks to the inspection backend and defines the records it
// exchanges with it.
package api

// Domain is a tenant the backend scopes data to.
type Domain struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	RoleID    int    `json:"role_id"`
	Domain    string `json:"domain"`
	CreatedAt string `json:"created_at"`
}

// Object is an inspected site. Backends report the type either as free text
// (object_type_text or the older object_type) or only by id.
type Object struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	ObjectTypeID   int    `json:"object_type_id"`
	ObjectType     string `json:"object_type,omitempty"`
	ObjectTypeText string `json:"object_type_text,omitempty"`
	Status         string `json:"status"`
	LastCheckAt    string `json:"last_check_at"`
	CreatedAt      string `json:"created_at"`
}

type ObjectType struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Parameter is a checklist item inspected on every object of a type.
type Parameter struct {
	ID           int    `json:"id"`
	ObjectTypeID int    `json:"object_type_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Required     bool   `json:"required"`
}

type Task struct {
	ID          int    `json:"id"`
	ObjectID    int    `json:"object_id"`
	ObjectName  string `json:"object_name"`
	UserID      int    `json:"user_id"`
	UserName    string `json:"user_name"`
	Status      string `json:"status"`
	PlannedAt   string `json:"planned_at"`
	CompletedAt string `json:"completed_at"`
	Comment     string `json:"comment"`
}

// Check is a scheduled inspection shown on the calendar.
type Check struct {
	ID       int    `json:"id"`
	ObjectID int    `json:"object_id"`
	TaskID   int    `json:"task_id,omitempty"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Status   string `json:"status"`
}

// NonCompliance is a named defect category recorded against a parameter.
type NonCompliance struct {
	ID          int    `json:"id"`
	ParameterID int    `json:"parameter_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type Instruction struct {
	ID          int    `json:"id"`
	ParameterID int    `json:"parameter_id,omitempty"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	CreatedAt   string `json:"created_at"`
}

// Request payloads

type LoginRequest struct {
	Domain   string `json:"domain"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UserInput creates or edits a user. Password is only sent when set.
type UserInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	RoleID   int    `json:"role_id"`
	Password string `json:"password,omitempty"`
}

type ObjectInput struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	ObjectTypeID int    `json:"object_type_id"`
	Status       string `json:"status"`
}

type ObjectTypeInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ParameterInput struct {
	ObjectTypeID int    `json:"object_type_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Required     bool   `json:"required"`
}

type TaskInput struct {
	ObjectID    int    `json:"object_id"`
	UserID      int    `json:"user_id"`
	Status      string `json:"status"`
	PlannedAt   string `json:"planned_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Comment     string `json:"comment"`
}

type CheckInput struct {
	ObjectID int    `json:"object_id"`
	TaskID   int    `json:"task_id,omitempty"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Status   string `json:"status"`
}

type NonComplianceInput struct {
	ParameterID int    `json:"parameter_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type InstructionInput struct {
	ParameterID int    `json:"parameter_id,omitempty"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// Console JSON responses

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// TableResponse is the JSON form of a filtered table.
type TableResponse struct {
	Table   string              `json:"table"`
	Total   int                 `json:"total"`
	Visible int                 `json:"visible"`
	Filters map[string]string   `json:"filters"`
	Rows    []map[string]string `json:"rows"`
}

// FilterRequest applies (or, with Clear, resets) a table's filters.
type FilterRequest struct {
	Filters map[string]string `json:"filters"`
	Clear   bool              `json:"clear"`
}

// RateLimitResponse reports the login cooldown for a domain/username pair.
type RateLimitResponse struct {
	IsLimited     bool `json:"isLimited"`
	RemainingTime int  `json:"remainingTime"`
}

// Status and severity vocabularies accepted by the backend.
var (
	ObjectStatuses = []string{"active", "inactive", "decommissioned"}
	TaskStatuses   = []string{"new", "in_progress", "done", "cancelled"}
	CheckStatuses  = []string{"planned", "done", "missed"}
	Severities     = []string{"low", "medium", "high", "critical"}
)
