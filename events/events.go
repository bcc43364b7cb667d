// Package events publishes service request events to Kafka for downstream
// automation systems. Each submitted change request produces one event on a
// topic named <prefix>.<suffix>, keyed by the change number so all events for
// a change land on the same partition.
//
// When Kafka is disabled the package degrades to a no-op publisher: the
// portal works standalone and submissions simply do not emit events.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topic suffixes. The full topic name is "<prefix>.<suffix>".
const (
	TopicDeviceConnection     = "device.connection"
	TopicDataCenterDeployment = "datacenter.deployment"
	TopicPopDeployment        = "pop.deployment"
	TopicTaskStatus           = "task.status"
	TopicTaskCompletion       = "task.completion"
)

// Source identifies this system in every event it emits.
const Source = "franc-portal"

// Event is anything the publisher can send. Key selects the Kafka partition
// and TopicSuffix selects the topic under the configured prefix.
type Event interface {
	Key() string
	TopicSuffix() string
}

// ServiceRequestEvent carries the fields common to every event.
type ServiceRequestEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	ChangeNumber string    `json:"change_number"`
	RequestID    string    `json:"request_id"`
	Timestamp    time.Time `json:"timestamp"`
	UserID       string    `json:"user_id,omitempty"`
	Source       string    `json:"source"`
}

// Key returns the change number, used as the Kafka message key.
func (e ServiceRequestEvent) Key() string { return e.ChangeNumber }

func newBase(eventType, changeNumber, requestID, userID string) ServiceRequestEvent {
	return ServiceRequestEvent{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		ChangeNumber: changeNumber,
		RequestID:    requestID,
		Timestamp:    time.Now().UTC(),
		UserID:       userID,
		Source:       Source,
	}
}

// InterfaceConfig describes one requested device interface in an event
// payload.
type InterfaceConfig struct {
	Name     string `json:"name"`
	Speed    string `json:"speed,omitempty"`
	VPC      bool   `json:"vpc"`
	VPCGroup string `json:"vpc_group,omitempty"`
}

// DeviceConnectionEvent announces a device connection request.
type DeviceConnectionEvent struct {
	ServiceRequestEvent

	DeviceName string            `json:"device_name"`
	DeviceType string            `json:"device_type"`
	Location   string            `json:"location"`
	Interfaces []InterfaceConfig `json:"interfaces"`
	VPCGroups  []string          `json:"vpc_groups,omitempty"`
}

// TopicSuffix implements Event.
func (e DeviceConnectionEvent) TopicSuffix() string { return TopicDeviceConnection }

// NewDeviceConnectionEvent builds a device connection event for a change.
func NewDeviceConnectionEvent(changeNumber, userID, deviceName, deviceType, location string, interfaces []InterfaceConfig, vpcGroups []string) DeviceConnectionEvent {
	return DeviceConnectionEvent{
		ServiceRequestEvent: newBase("device_connection", changeNumber, "device_conn_"+changeNumber, userID),
		DeviceName:          deviceName,
		DeviceType:          deviceType,
		Location:            location,
		Interfaces:          interfaces,
		VPCGroups:           vpcGroups,
	}
}

// DataCenterDeploymentEvent announces a data center deployment request.
type DataCenterDeploymentEvent struct {
	ServiceRequestEvent

	DCName        string `json:"dc_name"`
	Location      string `json:"location"`
	DesignPattern string `json:"design_pattern"`
}

// TopicSuffix implements Event.
func (e DataCenterDeploymentEvent) TopicSuffix() string { return TopicDataCenterDeployment }

// NewDataCenterDeploymentEvent builds a data center deployment event.
func NewDataCenterDeploymentEvent(changeNumber, userID, dcName, location, designPattern string) DataCenterDeploymentEvent {
	return DataCenterDeploymentEvent{
		ServiceRequestEvent: newBase("datacenter_deployment", changeNumber, "datacenter_"+changeNumber, userID),
		DCName:              dcName,
		Location:            location,
		DesignPattern:       designPattern,
	}
}

// PopDeploymentEvent announces a point-of-presence deployment request.
type PopDeploymentEvent struct {
	ServiceRequestEvent

	PopName       string `json:"pop_name"`
	Location      string `json:"location"`
	DesignPattern string `json:"design_pattern"`
	Provider      string `json:"provider"`
}

// TopicSuffix implements Event.
func (e PopDeploymentEvent) TopicSuffix() string { return TopicPopDeployment }

// NewPopDeploymentEvent builds a PoP deployment event.
func NewPopDeploymentEvent(changeNumber, userID, popName, location, designPattern, provider string) PopDeploymentEvent {
	return PopDeploymentEvent{
		ServiceRequestEvent: newBase("pop_deployment", changeNumber, "pop_"+changeNumber, userID),
		PopName:             popName,
		Location:            location,
		DesignPattern:       designPattern,
		Provider:            provider,
	}
}

// Task status values used by TaskStatusUpdateEvent.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// TaskStatusUpdateEvent reports progress of a long-running task spawned by an
// earlier request.
type TaskStatusUpdateEvent struct {
	ServiceRequestEvent

	OriginalRequestID   string     `json:"original_request_id"`
	Status              string     `json:"status"`
	ProgressPercentage  int        `json:"progress_percentage"`
	StatusMessage       string     `json:"status_message,omitempty"`
	ErrorDetails        string     `json:"error_details,omitempty"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
}

// TopicSuffix implements Event.
func (e TaskStatusUpdateEvent) TopicSuffix() string { return TopicTaskStatus }

// NewTaskStatusUpdateEvent builds a status update for a running task.
func NewTaskStatusUpdateEvent(changeNumber, userID, originalRequestID, status string, progress int, message string) TaskStatusUpdateEvent {
	return TaskStatusUpdateEvent{
		ServiceRequestEvent: newBase("task_status_update", changeNumber, "status_update_"+changeNumber, userID),
		OriginalRequestID:   originalRequestID,
		Status:              status,
		ProgressPercentage:  progress,
		StatusMessage:       message,
	}
}

// TaskCompletionEvent reports the final outcome of a task.
type TaskCompletionEvent struct {
	ServiceRequestEvent

	OriginalRequestID string         `json:"original_request_id"`
	CompletionStatus  string         `json:"completion_status"`
	CompletionMessage string         `json:"completion_message,omitempty"`
	ResultData        map[string]any `json:"result_data,omitempty"`
	ErrorDetails      string         `json:"error_details,omitempty"`
	ExecutionDuration float64        `json:"execution_duration,omitempty"`
}

// TopicSuffix implements Event.
func (e TaskCompletionEvent) TopicSuffix() string { return TopicTaskCompletion }

// NewTaskCompletionEvent builds the final event for a task.
func NewTaskCompletionEvent(changeNumber, userID, originalRequestID, status, message string, duration time.Duration) TaskCompletionEvent {
	return TaskCompletionEvent{
		ServiceRequestEvent: newBase("task_completion", changeNumber, "completion_"+changeNumber, userID),
		OriginalRequestID:   originalRequestID,
		CompletionStatus:    status,
		CompletionMessage:   message,
		ExecutionDuration:   duration.Seconds(),
	}
}
