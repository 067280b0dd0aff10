package model

import "time"

// Subject is a course owned by one teacher.
type Subject struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	TeacherEmail  string    `json:"teacher_email"`
	EnrolledCount int       `json:"enrolled_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// ClassroomStats counts submissions recorded for a subject.
type ClassroomStats struct {
	TotalSubmissions int `json:"total_submissions"`
	GradedCount      int `json:"graded_count"`
	PendingCount     int `json:"pending_count"`
}

// ClassroomOverview is the subject landing view for its teacher.
type ClassroomOverview struct {
	Subject                      Subject               `json:"subject"`
	EnrolledStudents             []EnrolledStudent     `json:"enrolled_students"`
	UploadedExams                []PaperSummary        `json:"uploaded_exams"`
	Stats                        ClassroomStats        `json:"stats"`
	Distributions                []DistributionSummary `json:"distributions"`
	DistributedSubmittedCount    int                   `json:"distributed_submitted_count"`
	DistributedNotSubmittedCount int                   `json:"distributed_not_submitted_count"`
}
