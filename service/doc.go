// Package service orchestrates the engine around the matching core:
// sequencing, write-ahead journaling, trade outbox, snapshots, and
// the Kafka command inlet.
//
// All mutations flow through OrderService from a single goroutine.
// Reads (depth, order dumps) run under read epochs so the reclaim job
// never recycles an order a reader still holds.
package service
