package cmd

import "time"

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// AmqpURL selects the RabbitMQ queue backend when set.
	// When empty the service runs on the in-process queue.
	AmqpURL       string
	AmqpQueueName string

	QueueWorkers    int
	QueueBufferSize int

	RetryBaseDelay time.Duration
	RetryMax       int

	SweepStaleAfter time.Duration

	SimulatedWorkDelay time.Duration
}
