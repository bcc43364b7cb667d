package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name        string
		enabled     string
		servers     string
		prefix      string
		wantEnabled bool
		wantServers []string
		wantPrefix  string
	}{
		{
			name:        "defaults",
			wantEnabled: false,
			wantServers: []string{"localhost:9092"},
			wantPrefix:  "franc",
		},
		{
			name:        "enabled with cluster",
			enabled:     "true",
			servers:     "kafka-1:9092,kafka-2:9092",
			prefix:      "prod",
			wantEnabled: true,
			wantServers: []string{"kafka-1:9092", "kafka-2:9092"},
			wantPrefix:  "prod",
		},
		{
			name:        "enabled accepts yes",
			enabled:     "YES",
			wantEnabled: true,
			wantServers: []string{"localhost:9092"},
			wantPrefix:  "franc",
		},
		{
			name:        "unknown value means disabled",
			enabled:     "enabled",
			wantEnabled: false,
			wantServers: []string{"localhost:9092"},
			wantPrefix:  "franc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvEnabled, tt.enabled)
			t.Setenv(EnvBootstrapServers, tt.servers)
			t.Setenv(EnvTopicPrefix, tt.prefix)

			cfg := ConfigFromEnv()
			assert.Equal(t, tt.wantEnabled, cfg.Enabled)
			assert.Equal(t, tt.wantServers, cfg.BootstrapServers)
			assert.Equal(t, tt.wantPrefix, cfg.TopicPrefix)
		})
	}
}

func TestPublish_DeviceConnectionEvent(t *testing.T) {
	writer := &fakeWriter{}
	pub := NewKafkaPublisher(Config{TopicPrefix: "franc"}, withWriter(writer))

	event := NewDeviceConnectionEvent("CHG-2024-001234", "jdoe", "nyc-leaf-01", "leaf",
		"New York", []InterfaceConfig{{Name: "Ethernet1/1", Speed: "100G", VPC: true, VPCGroup: "vpc-1"}},
		[]string{"vpc-1"})

	require.NoError(t, pub.Publish(context.Background(), event))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "franc.device.connection", msg.Topic)
	assert.Equal(t, "CHG-2024-001234", string(msg.Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "device_connection", decoded["event_type"])
	assert.Equal(t, "device_conn_CHG-2024-001234", decoded["request_id"])
	assert.Equal(t, "franc-portal", decoded["source"])
	assert.Equal(t, "nyc-leaf-01", decoded["device_name"])
	assert.NotEmpty(t, decoded["event_id"])
	assert.NotEmpty(t, decoded["timestamp"])
}

func TestPublish_TopicPerEventType(t *testing.T) {
	writer := &fakeWriter{}
	pub := NewKafkaPublisher(Config{TopicPrefix: "franc"}, withWriter(writer))

	publish := func(e Event) {
		require.NoError(t, pub.Publish(context.Background(), e))
	}
	publish(NewDataCenterDeploymentEvent("CHG-1", "", "dc-east", "Ashburn", "Standard"))
	publish(NewPopDeploymentEvent("CHG-2", "", "pop-west", "Seattle", "Edge", "Lumen"))
	publish(NewTaskStatusUpdateEvent("CHG-3", "", "datacenter_CHG-3", StatusInProgress, 40, "Creating building"))
	publish(NewTaskCompletionEvent("CHG-4", "", "pop_CHG-4", StatusCompleted, "All steps completed", 12*time.Second))

	require.Len(t, writer.messages, 4)
	assert.Equal(t, "franc.datacenter.deployment", writer.messages[0].Topic)
	assert.Equal(t, "franc.pop.deployment", writer.messages[1].Topic)
	assert.Equal(t, "franc.task.status", writer.messages[2].Topic)
	assert.Equal(t, "franc.task.completion", writer.messages[3].Topic)
}

func TestPublish_OmitsEmptyOptionalFields(t *testing.T) {
	writer := &fakeWriter{}
	pub := NewKafkaPublisher(Config{TopicPrefix: "franc"}, withWriter(writer))

	event := NewDataCenterDeploymentEvent("CHG-1", "", "dc-east", "Ashburn", "Standard")
	require.NoError(t, pub.Publish(context.Background(), event))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	_, present := decoded["user_id"]
	assert.False(t, present, "empty user id is omitted from the payload")
}

func TestPublish_WriterErrorIsWrapped(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unreachable")}
	pub := NewKafkaPublisher(Config{TopicPrefix: "franc"}, withWriter(writer))

	err := pub.Publish(context.Background(), NewDataCenterDeploymentEvent("CHG-1", "", "dc", "loc", "std"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "franc.datacenter.deployment")
	assert.Contains(t, err.Error(), "broker unreachable")
}

func TestClose_ClosesWriter(t *testing.T) {
	writer := &fakeWriter{}
	pub := NewKafkaPublisher(Config{TopicPrefix: "franc"}, withWriter(writer))

	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)
}

func TestNewPublisher_DisabledIsNop(t *testing.T) {
	pub := NewPublisher(Config{Enabled: false})

	_, isNop := pub.(NopPublisher)
	assert.True(t, isNop)

	// Publishing through the no-op is always a trivial success.
	err := pub.Publish(context.Background(), NewDataCenterDeploymentEvent("CHG-1", "", "dc", "loc", "std"))
	assert.NoError(t, err)
	assert.NoError(t, pub.Close())
}

func TestEventIDsAreUnique(t *testing.T) {
	a := NewDataCenterDeploymentEvent("CHG-1", "", "dc", "loc", "std")
	b := NewDataCenterDeploymentEvent("CHG-1", "", "dc", "loc", "std")
	assert.NotEqual(t, a.EventID, b.EventID)
}
