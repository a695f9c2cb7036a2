package mq

import "time"

// Routing keys published by the API.
const (
	RoutingUserRegistered        = "user.registered"
	RoutingConfirmationRequested = "user.confirmation_requested"
	RoutingTaskCreated           = "task.created"
	RoutingTaskCompleted         = "task.completed"
	RoutingTaskDeleted           = "task.deleted"
	RoutingLabelCreated          = "label.created"
	RoutingLabelDeleted          = "label.deleted"
)

type UserRegisteredPayload struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
}

// ConfirmationRequestedPayload hands the confirmation mail off to a
// notification consumer. The API itself never sends mail.
type ConfirmationRequestedPayload struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type TaskEventPayload struct {
	TaskID    int       `json:"task_id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	At        time.Time `json:"at"`
}

type LabelEventPayload struct {
	LabelID int       `json:"label_id"`
	UserID  int       `json:"user_id"`
	Name    string    `json:"name"`
	At      time.Time `json:"at"`
}
