// Package model provides the data structures shared by the pipeline package and its observers.
// It defines the stage descriptions handed to pipeline options and the execution modes of a manager.
package model
