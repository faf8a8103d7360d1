// Package remote is the hosted relational store the client migrates into.
package remote

import "time"

// Exercise is an entry of the global exercise catalogue.
type Exercise struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Workout struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"userId"`
	ExerciseName string    `json:"exerciseName"`
	Reps         int       `json:"reps"`
	Weight       float64   `json:"weight"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BodyWeight is unique per account and date.
type BodyWeight struct {
	ID        string    `json:"id"`
	AccountID string    `json:"userId"`
	Weight    float64   `json:"weight"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}
