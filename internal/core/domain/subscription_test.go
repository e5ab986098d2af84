package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicTarget_String(t *testing.T) {
	topic := TopicTarget{Project: "my-project", Topic: "gmail-notifications"}

	assert.Equal(t, "projects/my-project/topics/gmail-notifications", topic.String())
}

func TestTopicTarget_Validate(t *testing.T) {
	tests := []struct {
		name    string
		topic   TopicTarget
		wantErr bool
	}{
		{"valid", TopicTarget{Project: "p", Topic: "t"}, false},
		{"missing project", TopicTarget{Topic: "t"}, true},
		{"missing topic", TopicTarget{Project: "p"}, true},
		{"blank topic", TopicTarget{Project: "p", Topic: "  "}, true},
		{"slash in topic", TopicTarget{Project: "p", Topic: "a/b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.topic.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
