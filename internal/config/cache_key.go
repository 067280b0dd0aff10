package config

import (
	"fmt"
	"strings"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PaperLockKey returns the lock key serializing edits to one paper.
func (r *CacheKeyStruct) PaperLockKey(examID string) string {
	return fmt.Sprintf("paper:%s:lock", examID)
}

// SubjectTrackerChannel returns the Redis PubSub channel carrying tracker
// events for a subject. Subject names are matched case-insensitively.
func (r *CacheKeyStruct) SubjectTrackerChannel(subject string) string {
	return fmt.Sprintf("subject:%s:tracker", strings.ToLower(strings.TrimSpace(subject)))
}

// SubmissionAnswersPendingKey marks a submission whose answers are queued but
// not yet persisted.
func (r *CacheKeyStruct) SubmissionAnswersPendingKey(submissionID int64) string {
	return fmt.Sprintf("submission:%d:answers_pending", submissionID)
}

var CacheKey = NewCacheKeyStruct()
