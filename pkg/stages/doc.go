// Package stages provides the built-in action stages of an argument pipeline:
// $filter, $count and $first.
package stages
