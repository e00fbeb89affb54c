package config

type WorkerKeyStruct struct {
	ResultNotificationQueue string
	// ResultNotificationDeadQueue keeps jobs that exhausted their attempts.
	ResultNotificationDeadQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ResultNotificationQueue:     "result_notification_queue",
	ResultNotificationDeadQueue: "result_notification_dead_queue",
}
