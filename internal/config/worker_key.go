package config

type WorkerKeyStruct struct {
	PersistAnswerSubmissionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswerSubmissionsQueue: "persist_answer_submissions_queue",
}
