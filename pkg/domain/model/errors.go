package model

import "errors"

var (
	// ErrIndexNotFound is returned when an operation names an unknown index
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexExists is returned when creating an index whose name is taken
	ErrIndexExists = errors.New("index already exists")

	// ErrVectorDimension is returned when a vector does not match the index dimension
	ErrVectorDimension = errors.New("vector dimension does not match index")
)
