package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriority_Valid(t *testing.T) {
	assert.True(t, PriorityLow.Valid())
	assert.True(t, PriorityMedium.Valid())
	assert.True(t, PriorityHigh.Valid())
	assert.False(t, Priority("Urgent").Valid())
	assert.False(t, Priority("").Valid())
}

func TestTag_Valid(t *testing.T) {
	for _, tag := range Tags {
		assert.True(t, tag.Valid(), tag)
	}
	assert.False(t, Tag("work").Valid())
	assert.False(t, Tag("Errands").Valid())
}

func TestTask_CloneDetachesTags(t *testing.T) {
	task := Task{ID: 1, Tags: []Tag{TagWork}}

	clone := task.Clone()
	clone.Tags[0] = TagHealth

	assert.Equal(t, TagWork, task.Tags[0])
	assert.True(t, task.HasTag(TagWork))
	assert.False(t, task.HasTag(TagHealth))
}

func TestTask_CloneNormalizesNilTags(t *testing.T) {
	clone := Task{ID: 1}.Clone()
	assert.NotNil(t, clone.Tags)
	assert.Empty(t, clone.Tags)
}
